package common

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ParseJSON 解析 JSON 字符串到結構體
func ParseJSON(data string, v interface{}) error {
	return decodeJSON(strings.NewReader(data), v)
}

func decodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		return err
	}

	// 確保沒有多餘資料
	for {
		t, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if t != nil {
			return fmt.Errorf("unexpected extra JSON data")
		}
	}
}

var unquotedKeyPattern = regexp.MustCompile(`([{\[,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)

// QuoteJSONKeys 將未加雙引號的鍵補上雙引號
func QuoteJSONKeys(raw string) string {
	return unquotedKeyPattern.ReplaceAllString(raw, `$1"$2":`)
}

// StripCodeFences 去除 LLM 回應常見的 ``` 包裹
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ExtractJSONObject 擷取第一個 { 到最後一個 } 之間的內容
func ExtractJSONObject(s string) (string, bool) {
	return extractBetween(StripCodeFences(s), "{", "}")
}

// ExtractJSONArray 擷取第一個 [ 到最後一個 ] 之間的內容
func ExtractJSONArray(s string) (string, bool) {
	return extractBetween(StripCodeFences(s), "[", "]")
}

func extractBetween(s, open, close string) (string, bool) {
	start := strings.Index(s, open)
	end := strings.LastIndex(s, close)
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// DecodeLLMObject 寬鬆解析 LLM 回傳的 JSON 物件，失敗時嘗試補引號再解析一次
func DecodeLLMObject(raw string, v interface{}) error {
	body, ok := ExtractJSONObject(raw)
	if !ok {
		return fmt.Errorf("no JSON object in response")
	}
	if err := ParseJSON(body, v); err != nil {
		if err2 := ParseJSON(QuoteJSONKeys(body), v); err2 != nil {
			return err
		}
	}
	return nil
}
