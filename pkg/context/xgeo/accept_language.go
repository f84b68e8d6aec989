package xgeo

import (
	"sort"
	"strconv"
	"strings"
)

// defaultQuality Accept-Language 条目缺省质量值
const defaultQuality = 1.0

// languageEntry Accept-Language 的单个解析条目
type languageEntry struct {
	// tag 两字母主子标签（已小写）
	tag string

	// quality q 质量值，范围 [0, 1]
	quality float64
}

// parseAcceptLanguage 解析 Accept-Language 头并按质量值降序返回条目。
//
// 解析规则：
//   - 按逗号分割条目，条目内按分号分割标签与参数
//   - q 参数缺失时默认 1.0，无法解析时同样回退 1.0
//   - 主子标签截取到第一个 "-"（"en-US" → "en"）并小写
//   - 排序稳定：同质量值保持原始顺序
//
// 畸形输入不报错，产出能解析多少算多少。
func parseAcceptLanguage(header string) []languageEntry {
	if header == "" {
		return nil
	}

	parts := strings.Split(header, ",")
	entries := make([]languageEntry, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		tag, params, _ := strings.Cut(part, ";")
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}

		// 主子标签："en-US" → "en"
		primary, _, _ := strings.Cut(tag, "-")
		primary = strings.ToLower(strings.TrimSpace(primary))
		if primary == "" {
			continue
		}

		entries = append(entries, languageEntry{
			tag:     primary,
			quality: parseQuality(params),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].quality > entries[j].quality
	})

	return entries
}

// parseQuality 从条目参数中提取 q 质量值。
// 缺失或无法解析时返回默认值 1.0。
func parseQuality(params string) float64 {
	for _, param := range strings.Split(params, ";") {
		param = strings.TrimSpace(param)
		value, ok := strings.CutPrefix(param, "q=")
		if !ok {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return defaultQuality
		}
		return q
	}
	return defaultQuality
}

// localeFromAcceptLanguage 返回 Accept-Language 中质量值最高的受支持语言环境。
// 没有受支持的条目时返回空字符串。
func localeFromAcceptLanguage(header string) string {
	for _, entry := range parseAcceptLanguage(header) {
		if supportedLocales[entry.tag] {
			return entry.tag
		}
	}
	return ""
}
