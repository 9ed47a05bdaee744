package tools

import (
	"fmt"
	"time"
)

// EditKind selects a metadata edit.
type EditKind int

const (
	EditRename EditKind = iota
	EditUnits
	EditLongName
	EditTime
)

// Edit is a single metadata change applied by EditMetadata.
type Edit struct {
	Kind     EditKind
	Variable string
	// Value is the new name, units or long name.
	Value string
	// Hour and Reference describe an EditTime: the single time value becomes
	// Hour, expressed in hours since Reference.
	Hour      int
	Reference time.Time
}

// Rename changes a variable name.
func Rename(oldName, newName string) Edit {
	return Edit{Kind: EditRename, Variable: oldName, Value: newName}
}

// SetUnits sets the units attribute of a variable.
func SetUnits(variable, units string) Edit {
	return Edit{Kind: EditUnits, Variable: variable, Value: units}
}

// SetLongName sets the long_name attribute of a variable.
func SetLongName(variable, longName string) Edit {
	return Edit{Kind: EditLongName, Variable: variable, Value: longName}
}

// SetTime relabels the time axis to hour h since the reference time.
func SetTime(h int, reference time.Time) Edit {
	return Edit{Kind: EditTime, Variable: "time", Hour: h, Reference: reference}
}

// TimeUnits formats the CF time units for hours since ref.
func TimeUnits(ref time.Time) string {
	return "hours since " + ref.Format("2006-01-02 15:00:00")
}

// ncap2Script renders a non-rename edit as an ncap2 statement.
func (e Edit) ncap2Script() []string {
	switch e.Kind {
	case EditUnits:
		return []string{fmt.Sprintf(`%s@units="%s"`, e.Variable, e.Value)}
	case EditLongName:
		return []string{fmt.Sprintf(`%s@long_name="%s"`, e.Variable, e.Value)}
	case EditTime:
		return []string{
			fmt.Sprintf("time+=%d-time", e.Hour),
			fmt.Sprintf(`time@units="%s"`, TimeUnits(e.Reference)),
		}
	}
	return nil
}
