package pb

import "encoding/json"

// This file gives the flattened Plan/Rel/Expression/Type messages a JSON
// encoding compatible in spirit with protojson's enum-as-string
// convention, without depending on a generated proto.Message. Only the
// nullability, join-type, sort-direction, aggregation-phase and
// aggregation-invocation enums round-trip through named strings; the
// other enums (kind discriminators, emit kind, reference root, ...)
// encode as integers, and composite messages rely on default struct-field JSON encoding
// (documented in DESIGN.md as the stdlib fallback for this package, since
// no generated proto.Message exists for a real protojson.Marshal to
// operate on).

var nullabilityNames = map[NullabilityMode]string{
	NullabilityUnspecified: "NULLABILITY_UNSPECIFIED",
	NullabilityNullable:    "NULLABILITY_NULLABLE",
	NullabilityRequired:    "NULLABILITY_REQUIRED",
}

var joinTypeNames = map[JoinType]string{
	JoinUnspecified: "JOIN_TYPE_UNSPECIFIED",
	JoinInner:       "JOIN_TYPE_INNER",
	JoinOuter:       "JOIN_TYPE_OUTER",
	JoinLeft:        "JOIN_TYPE_LEFT",
	JoinRight:       "JOIN_TYPE_RIGHT",
	JoinLeftSemi:    "JOIN_TYPE_LEFT_SEMI",
	JoinRightSemi:   "JOIN_TYPE_RIGHT_SEMI",
	JoinLeftAnti:    "JOIN_TYPE_LEFT_ANTI",
	JoinRightAnti:   "JOIN_TYPE_RIGHT_ANTI",
	JoinLeftSingle:  "JOIN_TYPE_LEFT_SINGLE",
	JoinRightSingle: "JOIN_TYPE_RIGHT_SINGLE",
	JoinLeftMark:    "JOIN_TYPE_LEFT_MARK",
	JoinRightMark:   "JOIN_TYPE_RIGHT_MARK",
}

var sortDirectionNames = map[SortDirection]string{
	SortUnspecified:    "SORT_DIRECTION_UNSPECIFIED",
	SortAscNullsFirst:  "SORT_DIRECTION_ASC_NULLS_FIRST",
	SortAscNullsLast:   "SORT_DIRECTION_ASC_NULLS_LAST",
	SortDescNullsFirst: "SORT_DIRECTION_DESC_NULLS_FIRST",
	SortDescNullsLast:  "SORT_DIRECTION_DESC_NULLS_LAST",
	SortClustered:      "SORT_DIRECTION_CLUSTERED",
}

var aggregatePhaseNames = map[AggregatePhase]string{
	PhaseUnspecified:                "AGGREGATION_PHASE_UNSPECIFIED",
	PhaseInitialToIntermediate:      "AGGREGATION_PHASE_INITIAL_TO_INTERMEDIATE",
	PhaseIntermediateToIntermediate: "AGGREGATION_PHASE_INTERMEDIATE_TO_INTERMEDIATE",
	PhaseInitialToResult:            "AGGREGATION_PHASE_INITIAL_TO_RESULT",
	PhaseIntermediateToResult:       "AGGREGATION_PHASE_INTERMEDIATE_TO_RESULT",
}

var aggregateInvocationNames = map[AggregateInvocation]string{
	InvocationUnspecified: "AGGREGATION_INVOCATION_UNSPECIFIED",
	InvocationAll:         "AGGREGATION_INVOCATION_ALL",
	InvocationDistinct:    "AGGREGATION_INVOCATION_DISTINCT",
}

func invert[K comparable](m map[K]string) map[string]K {
	out := make(map[string]K, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

var nullabilityValues = invert(nullabilityNames)
var joinTypeValues = invert(joinTypeNames)
var sortDirectionValues = invert(sortDirectionNames)
var aggregatePhaseValues = invert(aggregatePhaseNames)
var aggregateInvocationValues = invert(aggregateInvocationNames)

func (n NullabilityMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(nullabilityNames[n])
}

func (n *NullabilityMode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*n = nullabilityValues[s]
	return nil
}

func (j JoinType) MarshalJSON() ([]byte, error) {
	return json.Marshal(joinTypeNames[j])
}

func (j *JoinType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*j = joinTypeValues[s]
	return nil
}

func (s SortDirection) MarshalJSON() ([]byte, error) {
	return json.Marshal(sortDirectionNames[s])
}

func (s *SortDirection) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	*s = sortDirectionValues[str]
	return nil
}

func (p AggregatePhase) MarshalJSON() ([]byte, error) {
	return json.Marshal(aggregatePhaseNames[p])
}

func (p *AggregatePhase) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*p = aggregatePhaseValues[s]
	return nil
}

func (i AggregateInvocation) MarshalJSON() ([]byte, error) {
	return json.Marshal(aggregateInvocationNames[i])
}

func (i *AggregateInvocation) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*i = aggregateInvocationValues[s]
	return nil
}

// MarshalTextJSON renders a Plan as indented JSON, the textplan compiler's
// `-to json` output format.
func MarshalTextJSON(p *Plan) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// UnmarshalTextJSON parses the `-from json` input format back into a Plan.
func UnmarshalTextJSON(data []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
