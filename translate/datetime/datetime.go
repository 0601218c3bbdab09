// Package datetime translates members of date/time values into PostgreSQL
// date_part, date_trunc and now() expressions.
package datetime

import (
	"github.com/shibukawa/pgxlate"
	"github.com/shibukawa/pgxlate/sqlbuild"
	"github.com/shibukawa/pgxlate/sqlexpr"
	"github.com/shibukawa/pgxlate/translate/ops"
	"github.com/shibukawa/pgxlate/valtype"
)

// date_part field names of the component members
var datePartUnits = map[ops.Member]string{
	ops.MemberYear:      "year",
	ops.MemberMonth:     "month",
	ops.MemberDayOfYear: "doy",
	ops.MemberDay:       "day",
	ops.MemberHour:      "hour",
	ops.MemberMinute:    "minute",
	ops.MemberSecond:    "second",
}

// Translator is the temporal member translator.
type Translator struct {
	factory *sqlbuild.Factory
}

func New(factory *sqlbuild.Factory) *Translator {
	return &Translator{factory: factory}
}

// TranslateMember lowers a DateTime or DateTimeOffset member. Millisecond,
// TimeOfDay and Ticks have no translation.
func (t *Translator) TranslateMember(instance sqlexpr.Expr, member *ops.MemberDescriptor, resultType valtype.Type) (sqlexpr.Expr, bool) {
	if member == nil || !member.IsTemporal() || !t.factory.Supports(pgxlate.FeatureDatePart) {
		return nil, false
	}

	if resultType.Kind == valtype.Unknown {
		resultType = member.ResultType
	}

	if member.Static {
		if instance != nil {
			return nil, false
		}

		return t.translateStatic(member, resultType)
	}

	if instance == nil || !instance.Type().IsTemporal() {
		return nil, false
	}

	if unit, ok := datePartUnits[member.Member]; ok {
		return t.factory.Convert(t.datePart(unit, instance), resultType, nil), true
	}

	switch member.Member {
	case ops.MemberDayOfWeek:
		// dow is 0 (Sunday) to 6, matching the host enumeration
		floor := t.factory.Function("floor", []sqlexpr.Expr{t.datePart("dow", instance)}, valtype.TypeUnknown)
		return t.factory.Convert(floor, resultType, nil), true
	case ops.MemberDate:
		return t.dateTrunc("day", instance, resultType), true
	default:
		return nil, false
	}
}

func (t *Translator) translateStatic(member *ops.MemberDescriptor, resultType valtype.Type) (sqlexpr.Expr, bool) {
	switch member.Member {
	case ops.MemberNow:
		return t.now(resultType), true
	case ops.MemberUtcNow:
		if !t.factory.Supports(pgxlate.FeatureTimeZoneConversion) {
			return nil, false
		}

		return t.factory.AtTimeZone(t.now(valtype.TypeDateTimeOffset), "UTC", resultType), true
	case ops.MemberToday:
		return t.dateTrunc("day", t.now(valtype.TypeDateTimeOffset), resultType), true
	default:
		return nil, false
	}
}

func (t *Translator) now(resultType valtype.Type) sqlexpr.Expr {
	return t.factory.Function("now", nil, resultType)
}

func (t *Translator) datePart(unit string, operand sqlexpr.Expr) sqlexpr.Expr {
	args := []sqlexpr.Expr{t.unit(unit), operand}
	return t.factory.Function("date_part", args, valtype.TypeUnknown)
}

func (t *Translator) dateTrunc(unit string, operand sqlexpr.Expr, resultType valtype.Type) sqlexpr.Expr {
	args := []sqlexpr.Expr{t.unit(unit), operand}
	return t.factory.Function("date_trunc", args, resultType)
}

func (t *Translator) unit(name string) sqlexpr.Expr {
	return t.factory.ApplyDefaultTypeMapping(t.factory.Constant(name, valtype.TypeString))
}
