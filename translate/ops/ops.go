// Package ops is the closed catalog of translatable host operations: the
// collection methods and the collection and temporal members that
// translators recognize.
//
// Descriptors are package-level values built once at initialization.
// Translators compare descriptor fields, never names, so a lookup by name
// happens only at the edge (the query front end or the CLI).
package ops

import (
	"fmt"
	"strings"

	"github.com/shibukawa/pgxlate/valtype"
	"golang.org/x/text/cases"
)

// DeclaringType names the host type that declares an operation.
type DeclaringType string

const (
	TypeList           DeclaringType = "List"
	TypeArray          DeclaringType = "Array"
	TypeEnumerable     DeclaringType = "Enumerable"
	TypeDateTime       DeclaringType = "DateTime"
	TypeDateTimeOffset DeclaringType = "DateTimeOffset"
)

// Method enumerates collection methods.
type Method int

const (
	MethodGetItem Method = iota + 1
	MethodElementAt
	MethodContains
	MethodAny
	MethodCount
	MethodSequenceEqual
)

// Member enumerates properties.
type Member int

const (
	MemberCount Member = iota + 1
	MemberLength
	MemberNow
	MemberUtcNow
	MemberToday
	MemberYear
	MemberMonth
	MemberDayOfYear
	MemberDay
	MemberHour
	MemberMinute
	MemberSecond
	MemberMillisecond
	MemberDayOfWeek
	MemberDate
	MemberTimeOfDay
	MemberTicks
)

// MethodDescriptor identifies one method overload.
//
// Arity counts every argument, including the source collection of a static
// method. An Unknown ResultType means the element type of the collection.
// HasPredicate marks overloads taking a lambda, which have no SQL lowering.
type MethodDescriptor struct {
	DeclaringType DeclaringType
	Method        Method
	Name          string
	Arity         int
	Static        bool
	HasPredicate  bool
	ResultType    valtype.Type
}

func (d *MethodDescriptor) String() string {
	return fmt.Sprintf("%s.%s/%d", d.DeclaringType, d.Name, d.Arity)
}

// MemberDescriptor identifies one property.
type MemberDescriptor struct {
	DeclaringType DeclaringType
	Member        Member
	Name          string
	Static        bool
	ResultType    valtype.Type
}

func (d *MemberDescriptor) String() string {
	return string(d.DeclaringType) + "." + d.Name
}

// IsTemporal reports whether the member is declared by a date/time type.
func (d *MemberDescriptor) IsTemporal() bool {
	return d.DeclaringType == TypeDateTime || d.DeclaringType == TypeDateTimeOffset
}

// Collection methods.
var (
	ListGetItem  = &MethodDescriptor{DeclaringType: TypeList, Method: MethodGetItem, Name: "get_Item", Arity: 1}
	ListContains = &MethodDescriptor{DeclaringType: TypeList, Method: MethodContains, Name: "Contains", Arity: 1, ResultType: valtype.TypeBool}
	ArrayGetItem = &MethodDescriptor{DeclaringType: TypeArray, Method: MethodGetItem, Name: "get_Item", Arity: 1}

	EnumerableElementAt      = &MethodDescriptor{DeclaringType: TypeEnumerable, Method: MethodElementAt, Name: "ElementAt", Arity: 2, Static: true}
	EnumerableContains       = &MethodDescriptor{DeclaringType: TypeEnumerable, Method: MethodContains, Name: "Contains", Arity: 2, Static: true, ResultType: valtype.TypeBool}
	EnumerableAny            = &MethodDescriptor{DeclaringType: TypeEnumerable, Method: MethodAny, Name: "Any", Arity: 1, Static: true, ResultType: valtype.TypeBool}
	EnumerableAnyPredicate   = &MethodDescriptor{DeclaringType: TypeEnumerable, Method: MethodAny, Name: "Any", Arity: 2, Static: true, HasPredicate: true, ResultType: valtype.TypeBool}
	EnumerableCount          = &MethodDescriptor{DeclaringType: TypeEnumerable, Method: MethodCount, Name: "Count", Arity: 1, Static: true, ResultType: valtype.TypeInt32}
	EnumerableCountPredicate = &MethodDescriptor{DeclaringType: TypeEnumerable, Method: MethodCount, Name: "Count", Arity: 2, Static: true, HasPredicate: true, ResultType: valtype.TypeInt32}
	EnumerableSequenceEqual  = &MethodDescriptor{DeclaringType: TypeEnumerable, Method: MethodSequenceEqual, Name: "SequenceEqual", Arity: 2, Static: true, ResultType: valtype.TypeBool}
)

// Collection members.
var (
	ListCount   = &MemberDescriptor{DeclaringType: TypeList, Member: MemberCount, Name: "Count", ResultType: valtype.TypeInt32}
	ArrayLength = &MemberDescriptor{DeclaringType: TypeArray, Member: MemberLength, Name: "Length", ResultType: valtype.TypeInt32}
)

// Temporal members.
var (
	DateTimeNow         = temporal(TypeDateTime, MemberNow, "Now", true, valtype.TypeDateTime)
	DateTimeUtcNow      = temporal(TypeDateTime, MemberUtcNow, "UtcNow", true, valtype.TypeDateTime)
	DateTimeToday       = temporal(TypeDateTime, MemberToday, "Today", true, valtype.TypeDateTime)
	DateTimeYear        = temporal(TypeDateTime, MemberYear, "Year", false, valtype.TypeInt32)
	DateTimeMonth       = temporal(TypeDateTime, MemberMonth, "Month", false, valtype.TypeInt32)
	DateTimeDayOfYear   = temporal(TypeDateTime, MemberDayOfYear, "DayOfYear", false, valtype.TypeInt32)
	DateTimeDay         = temporal(TypeDateTime, MemberDay, "Day", false, valtype.TypeInt32)
	DateTimeHour        = temporal(TypeDateTime, MemberHour, "Hour", false, valtype.TypeInt32)
	DateTimeMinute      = temporal(TypeDateTime, MemberMinute, "Minute", false, valtype.TypeInt32)
	DateTimeSecond      = temporal(TypeDateTime, MemberSecond, "Second", false, valtype.TypeInt32)
	DateTimeMillisecond = temporal(TypeDateTime, MemberMillisecond, "Millisecond", false, valtype.TypeInt32)
	DateTimeDayOfWeek   = temporal(TypeDateTime, MemberDayOfWeek, "DayOfWeek", false, valtype.TypeInt32)
	DateTimeDate        = temporal(TypeDateTime, MemberDate, "Date", false, valtype.TypeDateTime)
	DateTimeTimeOfDay   = temporal(TypeDateTime, MemberTimeOfDay, "TimeOfDay", false, valtype.TypeTimeSpan)
	DateTimeTicks       = temporal(TypeDateTime, MemberTicks, "Ticks", false, valtype.TypeInt64)

	DateTimeOffsetNow         = temporal(TypeDateTimeOffset, MemberNow, "Now", true, valtype.TypeDateTimeOffset)
	DateTimeOffsetUtcNow      = temporal(TypeDateTimeOffset, MemberUtcNow, "UtcNow", true, valtype.TypeDateTimeOffset)
	DateTimeOffsetYear        = temporal(TypeDateTimeOffset, MemberYear, "Year", false, valtype.TypeInt32)
	DateTimeOffsetMonth       = temporal(TypeDateTimeOffset, MemberMonth, "Month", false, valtype.TypeInt32)
	DateTimeOffsetDayOfYear   = temporal(TypeDateTimeOffset, MemberDayOfYear, "DayOfYear", false, valtype.TypeInt32)
	DateTimeOffsetDay         = temporal(TypeDateTimeOffset, MemberDay, "Day", false, valtype.TypeInt32)
	DateTimeOffsetHour        = temporal(TypeDateTimeOffset, MemberHour, "Hour", false, valtype.TypeInt32)
	DateTimeOffsetMinute      = temporal(TypeDateTimeOffset, MemberMinute, "Minute", false, valtype.TypeInt32)
	DateTimeOffsetSecond      = temporal(TypeDateTimeOffset, MemberSecond, "Second", false, valtype.TypeInt32)
	DateTimeOffsetMillisecond = temporal(TypeDateTimeOffset, MemberMillisecond, "Millisecond", false, valtype.TypeInt32)
	DateTimeOffsetDayOfWeek   = temporal(TypeDateTimeOffset, MemberDayOfWeek, "DayOfWeek", false, valtype.TypeInt32)
	DateTimeOffsetDate        = temporal(TypeDateTimeOffset, MemberDate, "Date", false, valtype.TypeDateTime)
	DateTimeOffsetTimeOfDay   = temporal(TypeDateTimeOffset, MemberTimeOfDay, "TimeOfDay", false, valtype.TypeTimeSpan)
	DateTimeOffsetTicks       = temporal(TypeDateTimeOffset, MemberTicks, "Ticks", false, valtype.TypeInt64)
)

func temporal(declaring DeclaringType, member Member, name string, static bool, result valtype.Type) *MemberDescriptor {
	return &MemberDescriptor{DeclaringType: declaring, Member: member, Name: name, Static: static, ResultType: result}
}

var allMethods = []*MethodDescriptor{
	ListGetItem, ListContains, ArrayGetItem,
	EnumerableElementAt, EnumerableContains, EnumerableAny, EnumerableAnyPredicate,
	EnumerableCount, EnumerableCountPredicate, EnumerableSequenceEqual,
}

var allMembers = []*MemberDescriptor{
	ListCount, ArrayLength,
	DateTimeNow, DateTimeUtcNow, DateTimeToday, DateTimeYear, DateTimeMonth, DateTimeDayOfYear,
	DateTimeDay, DateTimeHour, DateTimeMinute, DateTimeSecond, DateTimeMillisecond, DateTimeDayOfWeek,
	DateTimeDate, DateTimeTimeOfDay, DateTimeTicks,
	DateTimeOffsetNow, DateTimeOffsetUtcNow, DateTimeOffsetYear, DateTimeOffsetMonth, DateTimeOffsetDayOfYear,
	DateTimeOffsetDay, DateTimeOffsetHour, DateTimeOffsetMinute, DateTimeOffsetSecond, DateTimeOffsetMillisecond,
	DateTimeOffsetDayOfWeek, DateTimeOffsetDate, DateTimeOffsetTimeOfDay, DateTimeOffsetTicks,
}

// lookup tables keyed by case-folded "Type.Name" (and "/arity" for methods)
var (
	methodIndex = make(map[string]*MethodDescriptor, len(allMethods))
	memberIndex = make(map[string]*MemberDescriptor, len(allMembers))
)

func init() {
	for _, m := range allMethods {
		key := methodKey(string(m.DeclaringType), m.Name, m.Arity)
		if _, dup := methodIndex[key]; dup {
			panic("ops: duplicate method descriptor " + m.String())
		}

		methodIndex[key] = m
	}

	for _, m := range allMembers {
		key := memberKey(string(m.DeclaringType), m.Name)
		if _, dup := memberIndex[key]; dup {
			panic("ops: duplicate member descriptor " + m.String())
		}

		memberIndex[key] = m
	}
}

func fold(s string) string {
	// a Caser keeps state, so each call gets its own
	return cases.Fold().String(strings.TrimSpace(s))
}

func methodKey(declaringType, name string, arity int) string {
	return fmt.Sprintf("%s.%s/%d", fold(declaringType), fold(name), arity)
}

func memberKey(declaringType, name string) string {
	return fold(declaringType) + "." + fold(name)
}

// LookupMethod resolves a method overload. Names are case-insensitive.
func LookupMethod(declaringType, name string, arity int) (*MethodDescriptor, bool) {
	d, ok := methodIndex[methodKey(declaringType, name, arity)]
	return d, ok
}

// LookupMember resolves a property. Names are case-insensitive.
func LookupMember(declaringType, name string) (*MemberDescriptor, bool) {
	d, ok := memberIndex[memberKey(declaringType, name)]
	return d, ok
}

// Methods returns every method descriptor in declaration order.
func Methods() []*MethodDescriptor {
	return append([]*MethodDescriptor(nil), allMethods...)
}

// Members returns every member descriptor in declaration order.
func Members() []*MemberDescriptor {
	return append([]*MemberDescriptor(nil), allMembers...)
}
