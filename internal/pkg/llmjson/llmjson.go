// Package llmjson 从大模型输出中恢复 JSON 对象
//
// 模型输出"形似 JSON"但不保证合法：可能带 markdown 代码块、前置说明文字或尾随内容。
// 处理顺序：去掉代码块标记 -> 丢弃第一个 '{' 之前的内容 -> 解析第一个 JSON 值 -> 按 JSON Schema 校验。
package llmjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrEmpty 输出为空
	ErrEmpty = errors.New("llmjson: empty content")
	// ErrNoObject 输出中没有 '{'
	ErrNoObject = errors.New("llmjson: no JSON object found")
)

var fencePattern = regexp.MustCompile("(?s)^\\s*```(?:json|JSON)?\\s*\\n(.*?)\\n\\s*```\\s*$")

// Clean 去掉首尾空白和 markdown 代码块标记
func Clean(content string) string {
	content = strings.TrimSpace(content)
	if m := fencePattern.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// ExtractObject 丢弃第一个 '{' 之前的全部内容
func ExtractObject(content string) (string, error) {
	content = Clean(content)
	if content == "" {
		return "", ErrEmpty
	}
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return "", ErrNoObject
	}
	return content[start:], nil
}

// Schema 编译后的 JSON Schema
type Schema struct {
	name   string
	schema *jsonschema.Schema
}

// Compile 编译 JSON Schema
func Compile(name, source string) (*Schema, error) {
	s, err := jsonschema.CompileString(name, source)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: s}, nil
}

// MustCompile 编译失败时 panic，用于包级变量
func MustCompile(name, source string) *Schema {
	s, err := Compile(name, source)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate 校验已解析的 JSON 值（json.Unmarshal 到 any 的结果）
func (s *Schema) Validate(v any) error {
	if err := s.schema.Validate(v); err != nil {
		return fmt.Errorf("llmjson: %s: %w", s.name, err)
	}
	return nil
}

// Decode 从模型输出中恢复 JSON 对象并解码到 dest
// schema 为 nil 时只做语法解析
func Decode(content string, schema *Schema, dest any) error {
	obj, err := ExtractObject(content)
	if err != nil {
		return err
	}

	// 只取第一个 JSON 值，忽略尾随内容
	var raw json.RawMessage
	if err := json.NewDecoder(strings.NewReader(obj)).Decode(&raw); err != nil {
		return fmt.Errorf("llmjson: parse: %w", err)
	}

	if schema != nil {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var generic any
		if err := dec.Decode(&generic); err != nil {
			return fmt.Errorf("llmjson: parse: %w", err)
		}
		if err := schema.Validate(generic); err != nil {
			return err
		}
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("llmjson: decode: %w", err)
	}
	return nil
}
