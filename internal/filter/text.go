package filter

import (
	"github.com/icode/ameba/internal/dsl"
	"github.com/icode/ameba/internal/i18n"
)

// Full-text clauses. Optional settings left at their zero value (empty
// string, nil pointer) are not sent to the search backend.

// Match searches one field.
type Match struct {
	Field   string
	Text    string
	Options MatchOptions
}

type MatchOptions struct {
	Phrase         bool
	PhrasePrefix   bool
	Operator       string
	ZeroTerms      string
	Cutoff         *float64
	MaxExpansions  *int
	Analyzer       string
	Boost          *float64
	MinShouldMatch string
	Rewrite        string
}

// MultiMatchType selects how the per-field scores of a MultiMatch combine.
type MultiMatchType string

const (
	MultiMatchBestFields   MultiMatchType = "best_fields"
	MultiMatchMostFields   MultiMatchType = "most_fields"
	MultiMatchCrossFields  MultiMatchType = "cross_fields"
	MultiMatchPhrase       MultiMatchType = "phrase"
	MultiMatchPhrasePrefix MultiMatchType = "phrase_prefix"
)

var multiMatchTypes = []MultiMatchType{
	MultiMatchBestFields, MultiMatchMostFields, MultiMatchCrossFields, MultiMatchPhrase, MultiMatchPhrasePrefix,
}

// MultiMatch searches several fields. Fields may carry a "^boost" suffix.
type MultiMatch struct {
	Text    string
	Fields  []string
	Options MultiMatchOptions
}

type MultiMatchOptions struct {
	Type           MultiMatchType
	TieBreaker     *float64
	Operator       string
	ZeroTerms      string
	Cutoff         *float64
	MaxExpansions  *int
	Analyzer       string
	Boost          *float64
	MinShouldMatch string
	Rewrite        string
}

// SimpleQuery is a simple query string search. No fields means all of them.
type SimpleQuery struct {
	Text    string
	Options SimpleOptions
}

type SimpleOptions struct {
	Fields            []string
	Operator          string
	Analyzer          string
	Flags             string
	LowercaseExpanded *bool
	AnalyzeWildcard   *bool
	Locale            string
	Lenient           *bool
	MinShouldMatch    string
}

// QueryString is a query string search over Options.Fields.
type QueryString struct {
	Text    string
	Options QueryStringOptions
}

type QueryStringOptions struct {
	Fields                    []string
	Operator                  string
	Locale                    string
	Lenient                   *bool
	MinShouldMatch            string
	Analyzer                  string
	UseDisMax                 *bool
	TieBreaker                *float64
	DefaultField              string
	AllowLeadingWildcard      *bool
	LowercaseExpanded         *bool
	FuzzyMaxExpansions        *int
	Fuzziness                 string
	FuzzyPrefixLength         *int
	PhraseSlop                *int
	Boost                     *float64
	AnalyzeWildcard           *bool
	AutoGeneratePhraseQueries *bool
	TimeZone                  string
	Rewrite                   string
}

// CommonTerms is a common terms search over each of Fields.
type CommonTerms struct {
	Text    string
	Fields  []string
	Options CommonTermsOptions
}

type CommonTermsOptions struct {
	Cutoff                 *float64
	LowFreqOperator        string
	HighFreqOperator       string
	MinShouldMatch         string
	MinShouldMatchLowFreq  string
	MinShouldMatchHighFreq string
}

const (
	operatorAnd = "AND"
	operatorOr  = "OR"

	zeroTermsNone = "none"
	zeroTermsAll  = "all"
)

type optionKind int

const (
	optBool optionKind = iota
	optString
	optFloat
	optInt
	optEnum
	optFields
)

// optionValue is an option coerced according to its optionKind.
type optionValue struct {
	b      bool
	s      string
	f      float64
	i      int
	fields []string
}

// optionSpec describes one recognised option key of a clause.
type optionSpec[T any] struct {
	kind    optionKind
	allowed []string
	set     func(o *T, v optionValue)
}

func (s optionSpec[T]) coerce(key string, v *Value) (optionValue, error) {
	if v == nil {
		switch s.kind {
		case optBool:
			return optionValue{b: true}, nil
		case optFields:
			return optionValue{}, dsl.NewSyntaxError(i18n.KeyArgumentKind, OpOption.String(), 1, OpFields.String())
		default:
			return optionValue{}, dsl.NewSyntaxError(i18n.KeyArgumentsExactlyOne, key)
		}
	}

	switch s.kind {
	case optBool:
		b, err := v.AsBool()
		return optionValue{b: b}, err
	case optString:
		str, err := v.AsString()
		return optionValue{s: str}, err
	case optFloat:
		f, err := v.AsFloat()
		return optionValue{f: f}, err
	case optInt:
		i, err := v.AsInt()
		return optionValue{i: int(i)}, err
	case optEnum:
		str, err := dsl.AsEnum(*v, s.allowed...)
		return optionValue{s: str}, err
	case optFields:
		if v.IsExpr() {
			if tf, ok := mustExpr(*v).(*TextFields); ok {
				return optionValue{fields: tf.Fields}, nil
			}
		}
		return optionValue{}, dsl.NewSyntaxError(i18n.KeyArgumentKind, OpOption.String(), 1, OpFields.String())
	}
	return optionValue{}, nil
}

// applyOptions walks opts once in insertion order. Keys missing from schema
// are skipped so the option vocabulary can grow without breaking queries.
func applyOptions[T any](schema map[string]optionSpec[T], opts *TextOptions, target *T) error {
	if opts == nil {
		return nil
	}
	for _, key := range opts.keys {
		spec, ok := schema[key]
		if !ok {
			continue
		}
		v, err := spec.coerce(key, opts.values[key])
		if err != nil {
			return err
		}
		spec.set(target, v)
	}
	return nil
}

// requireFields reports the missing "fields" option of query and common.
func requireFields(opts *TextOptions) error {
	if opts == nil {
		return dsl.NewSyntaxError(i18n.KeyArgumentKind, OpOption.String(), 1, OpFields.String())
	}
	_, err := optionFields(opts)
	return err
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
func boolPtr(b bool) *bool        { return &b }

var matchOptionSchema = map[string]optionSpec[MatchOptions]{
	"phrase":    {kind: optBool, set: func(o *MatchOptions, v optionValue) { o.Phrase = v.b }},
	"phrasePre": {kind: optBool, set: func(o *MatchOptions, v optionValue) { o.PhrasePrefix = v.b }},
	"opAnd": {kind: optBool, set: func(o *MatchOptions, v optionValue) {
		if v.b {
			o.Operator = operatorAnd
		}
	}},
	"opOr": {kind: optBool, set: func(o *MatchOptions, v optionValue) {
		if v.b {
			o.Operator = operatorOr
		}
	}},
	"terms":    {kind: optEnum, allowed: []string{zeroTermsNone, zeroTermsAll}, set: func(o *MatchOptions, v optionValue) { o.ZeroTerms = v.s }},
	"cutoff":   {kind: optFloat, set: func(o *MatchOptions, v optionValue) { o.Cutoff = floatPtr(v.f) }},
	"maxExp":   {kind: optInt, set: func(o *MatchOptions, v optionValue) { o.MaxExpansions = intPtr(v.i) }},
	"analyzer": {kind: optString, set: func(o *MatchOptions, v optionValue) { o.Analyzer = v.s }},
	"boost":    {kind: optFloat, set: func(o *MatchOptions, v optionValue) { o.Boost = floatPtr(v.f) }},
	"minMatch": {kind: optString, set: func(o *MatchOptions, v optionValue) { o.MinShouldMatch = v.s }},
	"rewrite":  {kind: optString, set: func(o *MatchOptions, v optionValue) { o.Rewrite = v.s }},
}

var multiMatchOptionSchema = map[string]optionSpec[MultiMatchOptions]{
	"type": {kind: optEnum, allowed: multiMatchTypeNames(), set: func(o *MultiMatchOptions, v optionValue) { o.Type = MultiMatchType(v.s) }},
	"tie":  {kind: optFloat, set: func(o *MultiMatchOptions, v optionValue) { o.TieBreaker = floatPtr(v.f) }},
	"opAnd": {kind: optBool, set: func(o *MultiMatchOptions, v optionValue) {
		if v.b {
			o.Operator = operatorAnd
		}
	}},
	"opOr": {kind: optBool, set: func(o *MultiMatchOptions, v optionValue) {
		if v.b {
			o.Operator = operatorOr
		}
	}},
	"terms":    {kind: optEnum, allowed: []string{zeroTermsNone, zeroTermsAll}, set: func(o *MultiMatchOptions, v optionValue) { o.ZeroTerms = v.s }},
	"cutoff":   {kind: optFloat, set: func(o *MultiMatchOptions, v optionValue) { o.Cutoff = floatPtr(v.f) }},
	"maxExp":   {kind: optInt, set: func(o *MultiMatchOptions, v optionValue) { o.MaxExpansions = intPtr(v.i) }},
	"analyzer": {kind: optString, set: func(o *MultiMatchOptions, v optionValue) { o.Analyzer = v.s }},
	"boost":    {kind: optFloat, set: func(o *MultiMatchOptions, v optionValue) { o.Boost = floatPtr(v.f) }},
	"minMatch": {kind: optString, set: func(o *MultiMatchOptions, v optionValue) { o.MinShouldMatch = v.s }},
	"rewrite":  {kind: optString, set: func(o *MultiMatchOptions, v optionValue) { o.Rewrite = v.s }},
}

var simpleOptionSchema = map[string]optionSpec[SimpleOptions]{
	"fields": {kind: optFields, set: func(o *SimpleOptions, v optionValue) { o.Fields = v.fields }},
	"opAnd": {kind: optBool, set: func(o *SimpleOptions, v optionValue) {
		if v.b {
			o.Operator = operatorAnd
		}
	}},
	"opOr": {kind: optBool, set: func(o *SimpleOptions, v optionValue) {
		if v.b {
			o.Operator = operatorOr
		}
	}},
	"analyzer":        {kind: optString, set: func(o *SimpleOptions, v optionValue) { o.Analyzer = v.s }},
	"flags":           {kind: optString, set: func(o *SimpleOptions, v optionValue) { o.Flags = v.s }},
	"lowerExp":        {kind: optBool, set: func(o *SimpleOptions, v optionValue) { o.LowercaseExpanded = boolPtr(v.b) }},
	"analyzeWildcard": {kind: optBool, set: func(o *SimpleOptions, v optionValue) { o.AnalyzeWildcard = boolPtr(v.b) }},
	"locale":          {kind: optString, set: func(o *SimpleOptions, v optionValue) { o.Locale = v.s }},
	"lenient":         {kind: optBool, set: func(o *SimpleOptions, v optionValue) { o.Lenient = boolPtr(v.b) }},
	"minMatch":        {kind: optString, set: func(o *SimpleOptions, v optionValue) { o.MinShouldMatch = v.s }},
}

var queryStringOptionSchema = map[string]optionSpec[QueryStringOptions]{
	"fields": {kind: optFields, set: func(o *QueryStringOptions, v optionValue) { o.Fields = v.fields }},
	"opAnd": {kind: optBool, set: func(o *QueryStringOptions, v optionValue) {
		if v.b {
			o.Operator = operatorAnd
		}
	}},
	"opOr": {kind: optBool, set: func(o *QueryStringOptions, v optionValue) {
		if v.b {
			o.Operator = operatorOr
		}
	}},
	"locale":          {kind: optString, set: func(o *QueryStringOptions, v optionValue) { o.Locale = v.s }},
	"lenient":         {kind: optBool, set: func(o *QueryStringOptions, v optionValue) { o.Lenient = boolPtr(v.b) }},
	"minMatch":        {kind: optString, set: func(o *QueryStringOptions, v optionValue) { o.MinShouldMatch = v.s }},
	"analyzer":        {kind: optString, set: func(o *QueryStringOptions, v optionValue) { o.Analyzer = v.s }},
	"disMax":          {kind: optBool, set: func(o *QueryStringOptions, v optionValue) { o.UseDisMax = boolPtr(v.b) }},
	"tie":             {kind: optFloat, set: func(o *QueryStringOptions, v optionValue) { o.TieBreaker = floatPtr(v.f) }},
	"defaultField":    {kind: optString, set: func(o *QueryStringOptions, v optionValue) { o.DefaultField = v.s }},
	"leadingWildcard": {kind: optBool, set: func(o *QueryStringOptions, v optionValue) { o.AllowLeadingWildcard = boolPtr(v.b) }},
	"lowerExp":        {kind: optBool, set: func(o *QueryStringOptions, v optionValue) { o.LowercaseExpanded = boolPtr(v.b) }},
	"fuzzyMaxExp":     {kind: optInt, set: func(o *QueryStringOptions, v optionValue) { o.FuzzyMaxExpansions = intPtr(v.i) }},
	"fuzziness":       {kind: optString, set: func(o *QueryStringOptions, v optionValue) { o.Fuzziness = v.s }},
	"fuzzyPreLen":     {kind: optInt, set: func(o *QueryStringOptions, v optionValue) { o.FuzzyPrefixLength = intPtr(v.i) }},
	"phraseSlop":      {kind: optInt, set: func(o *QueryStringOptions, v optionValue) { o.PhraseSlop = intPtr(v.i) }},
	"boost":           {kind: optFloat, set: func(o *QueryStringOptions, v optionValue) { o.Boost = floatPtr(v.f) }},
	"analyzeWildcard": {kind: optBool, set: func(o *QueryStringOptions, v optionValue) { o.AnalyzeWildcard = boolPtr(v.b) }},
	"autoPhrase":      {kind: optBool, set: func(o *QueryStringOptions, v optionValue) { o.AutoGeneratePhraseQueries = boolPtr(v.b) }},
	"timeZone":        {kind: optString, set: func(o *QueryStringOptions, v optionValue) { o.TimeZone = v.s }},
	"rewrite":         {kind: optString, set: func(o *QueryStringOptions, v optionValue) { o.Rewrite = v.s }},
}

var commonTermsOptionSchema = map[string]optionSpec[CommonTermsOptions]{
	"cutoff": {kind: optFloat, set: func(o *CommonTermsOptions, v optionValue) { o.Cutoff = floatPtr(v.f) }},
	"lowFreqAnd": {kind: optBool, set: func(o *CommonTermsOptions, v optionValue) {
		o.LowFreqOperator = boolOperator(v.b)
	}},
	"highFreqAnd": {kind: optBool, set: func(o *CommonTermsOptions, v optionValue) {
		o.HighFreqOperator = boolOperator(v.b)
	}},
	"minMatch":         {kind: optString, set: func(o *CommonTermsOptions, v optionValue) { o.MinShouldMatch = v.s }},
	"minMatchLowFreq":  {kind: optString, set: func(o *CommonTermsOptions, v optionValue) { o.MinShouldMatchLowFreq = v.s }},
	"minMatchHighFreq": {kind: optString, set: func(o *CommonTermsOptions, v optionValue) { o.MinShouldMatchHighFreq = v.s }},
}

func boolOperator(and bool) string {
	if and {
		return operatorAnd
	}
	return operatorOr
}

func multiMatchTypeNames() []string {
	names := make([]string, len(multiMatchTypes))
	for i, t := range multiMatchTypes {
		names[i] = string(t)
	}
	return names
}

// mustExpr returns the expression of a value already known to hold one.
func mustExpr(v Value) Expression {
	e, _ := v.AsExpr()
	return e
}
