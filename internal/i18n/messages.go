// Package i18n renders localized messages for query DSL errors.
//
// Messages are looked up by key in a golang.org/x/text catalog. Every key is
// registered for English, which also serves as the fallback language.
package i18n

import (
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys used across the DSL.
const (
	KeyArgumentsExactlyOne  = "dsl.arguments.error0"
	KeyArgumentsExactlyTwo  = "dsl.arguments.error1"
	KeyArgumentsMoreThan    = "dsl.arguments.error2"
	KeyArgumentsExpressions = "dsl.arguments.error3"
	KeyArgumentsAtMost      = "dsl.arguments.error7"
	KeyArgumentKind         = "dsl.arguments.error4"
	KeyNoParent             = "dsl.arguments.error5"
	KeyWrongParent          = "dsl.arguments.error6"
	KeyFieldRequired        = "dsl.field.required"
	KeyBeanType             = "dsl.bean.type.err"
	KeyUnknownOperator      = "dsl.operator.unknown"
	KeyValueType            = "dsl.value.type.err"
	KeyParse                = "dsl.parse.err"
	KeyParseDepth           = "dsl.parse.depth"
	KeyDate                 = "dsl.date.err"
	KeyUnsupportedExpr      = "dsl.expression.unsupported"
	KeyUnprocessable        = "query.property.unprocessable"
)

// Supported languages. English is the fallback.
var Supported = []language.Tag{
	language.English,
	language.SimplifiedChinese,
}

var entries = map[language.Tag]map[string]string{
	language.English: {
		KeyArgumentsExactlyOne:  "operator [%s] requires exactly one argument",
		KeyArgumentsExactlyTwo:  "operator [%s] requires exactly two arguments",
		KeyArgumentsMoreThan:    "operator [%s] requires more than %d argument(s)",
		KeyArgumentsExpressions: "arguments of operator [%s] must be expressions",
		KeyArgumentKind:         "operator [%s] argument %d must be %s",
		KeyArgumentsAtMost:      "operator [%s] accepts at most %d argument(s)",
		KeyFieldRequired:        "operator [%s] requires a field",
		KeyNoParent:             "operator [%s] must be nested inside another operator",
		KeyWrongParent:          "operator [%s] must be nested inside [%s]",
		KeyBeanType:             "cannot resolve bean type [%s]",
		KeyUnknownOperator:      "unknown operator [%s]",
		KeyValueType:            "cannot convert value [%v] to %s",
		KeyParse:                "syntax error at position %d: %s",
		KeyParseDepth:           "query nesting exceeds the maximum depth of %d",
		KeyDate:                 "invalid date value [%s]",
		KeyUnsupportedExpr:      "expression [%s] cannot be used at the top level of a query",
		KeyUnprocessable:        "unknown query properties %s",
	},
	language.SimplifiedChinese: {
		KeyArgumentsExactlyOne:  "操作符 [%s] 只能有一个参数",
		KeyArgumentsExactlyTwo:  "操作符 [%s] 只能有两个参数",
		KeyArgumentsMoreThan:    "操作符 [%s] 的参数必须多于 %d 个",
		KeyArgumentsExpressions: "操作符 [%s] 的参数必须是表达式",
		KeyArgumentKind:         "操作符 [%s] 的第 %d 个参数必须是 %s",
		KeyArgumentsAtMost:      "操作符 [%s] 最多接受 %d 个参数",
		KeyFieldRequired:        "操作符 [%s] 需要指定字段",
		KeyNoParent:             "操作符 [%s] 必须嵌套在其他操作符中",
		KeyWrongParent:          "操作符 [%s] 必须嵌套在 [%s] 中",
		KeyBeanType:             "无法解析实体类型 [%s]",
		KeyUnknownOperator:      "未知的操作符 [%s]",
		KeyValueType:            "无法将值 [%v] 转换为 %s",
		KeyParse:                "位置 %d 存在语法错误: %s",
		KeyParseDepth:           "查询嵌套超过最大深度 %d",
		KeyDate:                 "无效的日期 [%s]",
		KeyUnsupportedExpr:      "表达式 [%s] 不能用于查询的顶层",
		KeyUnprocessable:        "未知的查询属性 %s",
	},
}

var (
	buildOnce sync.Once
	shared    *catalog.Builder
	matcher   = language.NewMatcher(Supported)
)

func sharedCatalog() *catalog.Builder {
	buildOnce.Do(func() {
		shared = catalog.NewBuilder(catalog.Fallback(language.English))
		for tag, msgs := range entries {
			for key, msg := range msgs {
				// SetString only fails for malformed format strings, which would be a programming error here.
				if err := shared.SetString(tag, key, msg); err != nil {
					panic(err)
				}
			}
		}
	})
	return shared
}

// Messages renders message keys for one language.
type Messages struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns Messages for the given language. Unsupported languages fall
// back to the closest supported one.
func New(tag language.Tag) *Messages {
	_, idx, _ := matcher.Match(tag)
	tag = Supported[idx]
	return &Messages{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(sharedCatalog())),
	}
}

// ForAcceptLanguage picks the best supported language for an HTTP
// Accept-Language header value.
func ForAcceptLanguage(header string) *Messages {
	tag, _ := language.MatchStrings(matcher, header)
	return New(tag)
}

// MatchAcceptLanguage is ForAcceptLanguage for content negotiation: it
// returns fallback when the header is empty, malformed or names no
// supported language.
func MatchAcceptLanguage(header string, fallback *Messages) *Messages {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	return New(Supported[idx])
}

var (
	defaultOnce     sync.Once
	defaultMessages *Messages
)

// Default returns the English messages.
func Default() *Messages {
	defaultOnce.Do(func() {
		defaultMessages = New(language.English)
	})
	return defaultMessages
}

// Language reports the language the messages are rendered in.
func (m *Messages) Language() language.Tag {
	return m.tag
}

// Get renders the message registered under key.
func (m *Messages) Get(key string, args ...interface{}) string {
	return m.printer.Sprintf(key, args...)
}

// Get renders key with the default messages.
func Get(key string, args ...interface{}) string {
	return Default().Get(key, args...)
}
