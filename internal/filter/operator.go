package filter

// Operator is one entry of the closed query vocabulary.
type Operator int

const (
	opInvalid Operator = iota

	// Comparisons
	OpEq
	OpNe
	OpIEq
	OpBetween
	OpGt
	OpGe
	OpLt
	OpLe
	OpIsNull
	OpNotNull
	OpStartsWith
	OpIStartsWith
	OpEndsWith
	OpIEndsWith
	OpContains
	OpIContains
	OpEmpty
	OpNotEmpty
	OpID
	OpIDIn
	OpDate

	// Sub-queries and composites
	OpHaving
	OpIn
	OpNotIn
	OpExists
	OpNotExists
	OpNot
	OpAnd
	OpOr
	OpMust
	OpShould
	OpMustNot
	OpFilter
	OpSelect
	OpDistinct

	// Full-text clauses
	OpText
	OpMatch
	OpSimple
	OpQuery
	OpCommon
	OpOption
	OpFields

	// Flag options
	OpPhrase
	OpPhrasePre
	OpOpAnd
	OpOpOr

	// Key-valued options
	OpType
	OpTie
	OpTerms
	OpCutoff
	OpMaxExp
	OpAnalyzer
	OpBoost
	OpMinMatch
	OpRewrite
	OpDisMax
	OpDefaultField
	OpLeadingWildcard
	OpLowerExp
	OpFuzzyMaxExp
	OpFuzziness
	OpFuzzyPreLen
	OpPhraseSlop
	OpAnalyzeWildcard
	OpAutoPhrase
	OpTimeZone
	OpLowFreqAnd
	OpHighFreqAnd
	OpMinMatchLowFreq
	OpMinMatchHighFreq

	operatorCount
)

var operatorNames = [operatorCount]string{
	OpEq:               "eq",
	OpNe:               "ne",
	OpIEq:              "ieq",
	OpBetween:          "between",
	OpGt:               "gt",
	OpGe:               "ge",
	OpLt:               "lt",
	OpLe:               "le",
	OpIsNull:           "isNull",
	OpNotNull:          "notNull",
	OpStartsWith:       "startsWith",
	OpIStartsWith:      "istartsWith",
	OpEndsWith:         "endsWith",
	OpIEndsWith:        "iendsWith",
	OpContains:         "contains",
	OpIContains:        "icontains",
	OpEmpty:            "empty",
	OpNotEmpty:         "notEmpty",
	OpID:               "id",
	OpIDIn:             "idIn",
	OpDate:             "date",
	OpHaving:           "having",
	OpIn:               "in",
	OpNotIn:            "notIn",
	OpExists:           "exists",
	OpNotExists:        "notExists",
	OpNot:              "not",
	OpAnd:              "and",
	OpOr:               "or",
	OpMust:             "must",
	OpShould:           "should",
	OpMustNot:          "mustNot",
	OpFilter:           "filter",
	OpSelect:           "select",
	OpDistinct:         "distinct",
	OpText:             "text",
	OpMatch:            "match",
	OpSimple:           "simple",
	OpQuery:            "query",
	OpCommon:           "common",
	OpOption:           "option",
	OpFields:           "fields",
	OpPhrase:           "phrase",
	OpPhrasePre:        "phrasePre",
	OpOpAnd:            "opAnd",
	OpOpOr:             "opOr",
	OpType:             "type",
	OpTie:              "tie",
	OpTerms:            "terms",
	OpCutoff:           "cutoff",
	OpMaxExp:           "maxExp",
	OpAnalyzer:         "analyzer",
	OpBoost:            "boost",
	OpMinMatch:         "minMatch",
	OpRewrite:          "rewrite",
	OpDisMax:           "disMax",
	OpDefaultField:     "defaultField",
	OpLeadingWildcard:  "leadingWildcard",
	OpLowerExp:         "lowerExp",
	OpFuzzyMaxExp:      "fuzzyMaxExp",
	OpFuzziness:        "fuzziness",
	OpFuzzyPreLen:      "fuzzyPreLen",
	OpPhraseSlop:       "phraseSlop",
	OpAnalyzeWildcard:  "analyzeWildcard",
	OpAutoPhrase:       "autoPhrase",
	OpTimeZone:         "timeZone",
	OpLowFreqAnd:       "lowFreqAnd",
	OpHighFreqAnd:      "highFreqAnd",
	OpMinMatchLowFreq:  "minMatchLowFreq",
	OpMinMatchHighFreq: "minMatchHighFreq",
}

var operatorsByName = func() map[string]Operator {
	m := make(map[string]Operator, len(operatorNames))
	for op, name := range operatorNames {
		if name != "" {
			m[name] = Operator(op)
		}
	}
	return m
}()

// ParseOperator maps a case-sensitive operator name onto the vocabulary.
func ParseOperator(name string) (Operator, bool) {
	op, ok := operatorsByName[name]
	return op, ok
}

func (o Operator) String() string {
	if o <= opInvalid || o >= operatorCount {
		return "invalid"
	}
	return operatorNames[o]
}

// Operators returns the whole vocabulary in declaration order.
func Operators() []Operator {
	ops := make([]Operator, 0, operatorCount-1)
	for op := opInvalid + 1; op < operatorCount; op++ {
		ops = append(ops, op)
	}
	return ops
}

func (o Operator) isFlagOption() bool {
	return o >= OpPhrase && o <= OpOpOr
}

func (o Operator) isValueOption() bool {
	return o >= OpType && o <= OpMinMatchHighFreq
}
