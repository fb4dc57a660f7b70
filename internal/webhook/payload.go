package webhook

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Payload 外部平台推送的原始数据，键值形状不做任何保证
type Payload map[string]interface{}

// ResolvePayload 按宽容度递减的顺序解析请求：
// 1) 请求体直接是 JSON 对象；
// 2) 表单只有一个字段且值是 JSON 字符串（平台把整个 JSON 塞进一个字段的投递方式）；
// 3) 表单整体当作键值对使用。
// 全部落空时返回 ok=false。
func ResolvePayload(body []byte, form url.Values) (Payload, bool) {
	var direct Payload
	if err := json.Unmarshal(body, &direct); err == nil && len(direct) > 0 {
		return direct, true
	}

	if len(form) == 0 {
		return nil, false
	}

	if len(form) == 1 {
		for _, values := range form {
			if len(values) == 0 {
				return nil, false
			}
			var nested Payload
			if err := json.Unmarshal([]byte(values[0]), &nested); err == nil && len(nested) > 0 {
				return nested, true
			}
			return nil, false
		}
	}

	reshaped := make(Payload, len(form))
	for key, values := range form {
		if len(values) == 1 {
			reshaped[key] = values[0]
		} else {
			reshaped[key] = values
		}
	}
	if len(reshaped) == 0 {
		return nil, false
	}
	return reshaped, true
}

// IsEmpty 判定字段缺失：nil 或空字符串
func IsEmpty(v interface{}) bool {
	return v == nil || v == ""
}

func isAbsent(v interface{}) bool {
	return v == nil || v == "" || v == "null"
}

// ToInt 宽容整数转换。nil、""、"null" 视为缺失；
// 转换失败一律返回 nil，从不报错。
func ToInt(v interface{}) *int64 {
	if isAbsent(v) {
		return nil
	}
	switch n := v.(type) {
	case float64:
		i := int64(n)
		return &i
	case int:
		i := int64(n)
		return &i
	case int64:
		return &n
	case json.Number:
		if f, err := n.Float64(); err == nil {
			i := int64(f)
			return &i
		}
		return nil
	case bool:
		var i int64
		if n {
			i = 1
		}
		return &i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return nil
		}
		return &i
	}
	return nil
}

// ToFloat 宽容浮点转换，缺失与失败规则同 ToInt
func ToFloat(v interface{}) *float64 {
	if isAbsent(v) {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return &f
		}
		return nil
	case bool:
		var f float64
		if n {
			f = 1
		}
		return &f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}

// ToDatetime 宽容时间解析，归一到秒精度；解析不了返回 nil
func ToDatetime(v interface{}) *time.Time {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	t, err := dateparse.ParseLocal(s)
	if err != nil {
		return nil
	}
	t = t.Truncate(time.Second)
	return &t
}

// Stringify 把任意标量转成字符串；JSON 数字按最短形式输出（5 而不是 5.0）
func Stringify(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ExtractCustomValue 从三种互斥的自定义字段编码里取值，依次尝试：
// fields[slug].value → fields 里按 label 扫描 → custom_fields 列表按 slug/label →
// custom_field_values[slug]。取第一个非空命中。
func ExtractCustomValue(p Payload, slug, label string) *string {
	if fields, ok := p["fields"].(map[string]interface{}); ok {
		item := fields[slug]
		if IsEmpty(item) {
			for _, fieldValue := range fields {
				if m, ok := fieldValue.(map[string]interface{}); ok && m["label"] == label {
					item = fieldValue
					break
				}
			}
		}
		if m, ok := item.(map[string]interface{}); ok {
			if candidate := m["value"]; !IsEmpty(candidate) {
				s := Stringify(candidate)
				return &s
			}
		}
	}

	if customFields, ok := p["custom_fields"].([]interface{}); ok {
		for _, entry := range customFields {
			m, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			if m["slug"] == slug || m["label"] == label {
				if candidate := m["value"]; !IsEmpty(candidate) {
					s := Stringify(candidate)
					return &s
				}
			}
		}
	}

	if customFieldValues, ok := p["custom_field_values"].(map[string]interface{}); ok {
		if candidate := customFieldValues[slug]; !IsEmpty(candidate) {
			s := Stringify(candidate)
			return &s
		}
	}

	return nil
}

// StringField 可选字符串字段：缺失返回 nil，否则字符串化
func StringField(v interface{}) *string {
	if IsEmpty(v) {
		return nil
	}
	s := Stringify(v)
	return &s
}

// NestedString 取嵌套对象里的可选字符串，如 user.email
func NestedString(p Payload, key, sub string) *string {
	if nested, ok := p[key].(map[string]interface{}); ok {
		return StringField(nested[sub])
	}
	return nil
}
