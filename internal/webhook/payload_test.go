package webhook

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePayloadJSONBody(t *testing.T) {
	body := []byte(`{"result_id": 123, "quiz_title": "Math Quiz"}`)

	payload, ok := ResolvePayload(body, nil)
	require.True(t, ok)
	assert.Equal(t, float64(123), payload["result_id"])
	assert.Equal(t, "Math Quiz", payload["quiz_title"])
}

func TestResolvePayloadSoleFormFieldJSONString(t *testing.T) {
	form := url.Values{}
	form.Set("payload", `{"result_id": 7, "quiz_title": "Quiz"}`)

	payload, ok := ResolvePayload(nil, form)
	require.True(t, ok)
	assert.Equal(t, float64(7), payload["result_id"])
}

func TestResolvePayloadSoleFormFieldBadJSON(t *testing.T) {
	form := url.Values{}
	form.Set("payload", "not json")

	_, ok := ResolvePayload(nil, form)
	assert.False(t, ok)
}

func TestResolvePayloadFormReinterpreted(t *testing.T) {
	form := url.Values{}
	form.Set("result_id", "42")
	form.Set("quiz_title", "Form Quiz")

	payload, ok := ResolvePayload([]byte("not json"), form)
	require.True(t, ok)
	assert.Equal(t, "42", payload["result_id"])
	assert.Equal(t, "Form Quiz", payload["quiz_title"])
}

func TestResolvePayloadEmpty(t *testing.T) {
	_, ok := ResolvePayload(nil, nil)
	assert.False(t, ok)

	_, ok = ResolvePayload([]byte("{}"), url.Values{})
	assert.False(t, ok)

	_, ok = ResolvePayload([]byte("garbage"), url.Values{})
	assert.False(t, ok)
}

func TestToInt(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want *int64
	}{
		{"numeric string", "42", ptr(int64(42))},
		{"json number", float64(87), ptr(int64(87))},
		{"float truncates", 87.9, ptr(int64(87))},
		{"nil", nil, nil},
		{"empty string", "", nil},
		{"null literal", "null", nil},
		{"garbage", "abc", nil},
		{"float string", "87.5", nil},
		{"padded", " 42 ", ptr(int64(42))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToInt(tc.in)
			if tc.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tc.want, *got)
			}
		})
	}
}

func TestToFloat(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want *float64
	}{
		{"numeric string", "90", ptr(90.0)},
		{"float string", "87.5", ptr(87.5)},
		{"json number", 35.0, ptr(35.0)},
		{"nil", nil, nil},
		{"empty string", "", nil},
		{"null literal", "null", nil},
		{"garbage", "n/a", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToFloat(tc.in)
			if tc.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tc.want, *got)
			}
		})
	}
}

func TestToDatetime(t *testing.T) {
	got := ToDatetime("2024-01-01T10:00:00")
	require.NotNil(t, got)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.January, got.Month())
	assert.Equal(t, 10, got.Hour())
	assert.Equal(t, 0, got.Nanosecond())

	assert.Nil(t, ToDatetime(""))
	assert.Nil(t, ToDatetime(nil))
	assert.Nil(t, ToDatetime("not a date"))
}

func TestToDatetimePermissiveFormats(t *testing.T) {
	for _, in := range []string{
		"2024-01-01 10:00:00",
		"2024/01/01 10:00:00",
		"01/02/2024",
	} {
		assert.NotNil(t, ToDatetime(in), "input %q", in)
	}
}

func TestExtractCustomValueFromFieldsSlug(t *testing.T) {
	payload := mustPayload(t, `{
		"fields": {"quiz_attr_2": {"label": "Student's Name", "value": "Jane Doe"}}
	}`)

	got := ExtractCustomValue(payload, "quiz_attr_2", "Student's Name")
	require.NotNil(t, got)
	assert.Equal(t, "Jane Doe", *got)
}

func TestExtractCustomValueFieldsLabelScan(t *testing.T) {
	payload := mustPayload(t, `{
		"fields": {"some_other_slug": {"label": "Student's ID", "value": "S-100"}}
	}`)

	got := ExtractCustomValue(payload, "quiz_attr_1", "Student's ID")
	require.NotNil(t, got)
	assert.Equal(t, "S-100", *got)
}

func TestExtractCustomValueFromCustomFieldsList(t *testing.T) {
	payload := mustPayload(t, `{
		"custom_fields": [
			{"slug": "quiz_attr_6", "label": "Tester's Name", "value": "Mr. Smith"}
		]
	}`)

	got := ExtractCustomValue(payload, "quiz_attr_6", "Tester's Name")
	require.NotNil(t, got)
	assert.Equal(t, "Mr. Smith", *got)
}

func TestExtractCustomValueFromCustomFieldValues(t *testing.T) {
	payload := mustPayload(t, `{
		"custom_field_values": {"quiz_attr_2": "Alice"}
	}`)

	got := ExtractCustomValue(payload, "quiz_attr_2", "Student's Name")
	require.NotNil(t, got)
	assert.Equal(t, "Alice", *got)
}

func TestExtractCustomValuePrecedence(t *testing.T) {
	// fields[slug].value 必须压过 custom_field_values[slug]
	payload := mustPayload(t, `{
		"fields": {"quiz_attr_2": {"label": "Student's Name", "value": "From Fields"}},
		"custom_field_values": {"quiz_attr_2": "From Values"}
	}`)

	got := ExtractCustomValue(payload, "quiz_attr_2", "Student's Name")
	require.NotNil(t, got)
	assert.Equal(t, "From Fields", *got)
}

func TestExtractCustomValueNumbersStringified(t *testing.T) {
	payload := mustPayload(t, `{
		"custom_field_values": {"quiz_attr_1": 1024}
	}`)

	got := ExtractCustomValue(payload, "quiz_attr_1", "Student's ID")
	require.NotNil(t, got)
	assert.Equal(t, "1024", *got)
}

func TestExtractCustomValueAbsent(t *testing.T) {
	payload := mustPayload(t, `{"fields": {}, "custom_fields": [], "custom_field_values": {}}`)
	assert.Nil(t, ExtractCustomValue(payload, "quiz_attr_2", "Student's Name"))

	// 空值不算命中
	payload = mustPayload(t, `{"fields": {"quiz_attr_2": {"label": "Student's Name", "value": ""}}}`)
	assert.Nil(t, ExtractCustomValue(payload, "quiz_attr_2", "Student's Name"))
}

func TestNestedString(t *testing.T) {
	payload := mustPayload(t, `{"user": {"email": "jane@example.com"}}`)

	email := NestedString(payload, "user", "email")
	require.NotNil(t, email)
	assert.Equal(t, "jane@example.com", *email)

	assert.Nil(t, NestedString(payload, "user", "phone"))
	assert.Nil(t, NestedString(Payload{}, "user", "email"))
}

func mustPayload(t *testing.T, raw string) Payload {
	t.Helper()
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func ptr[T any](v T) *T { return &v }
