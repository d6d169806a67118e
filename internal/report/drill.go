package report

import (
	"strings"

	"library-assessment/internal/model"
)

// Level is the depth of a classification chart
type Level string

const (
	TopLevel Level = "top"
	Drilled  Level = "drilled"
)

// DrillState is an immutable view of the controller
type DrillState struct {
	Level     Level                     `json:"level"`
	MainClass *model.ClassificationNode `json:"mainClass,omitempty"`
}

// DrillController tracks whether a classification chart shows main classes or
// the subclasses of one main class. Illegal transitions are ignored.
type DrillController struct {
	mainClass *model.ClassificationNode
}

// State returns the current state
func (c *DrillController) State() DrillState {
	if c.mainClass == nil {
		return DrillState{Level: TopLevel}
	}
	mc := *c.mainClass
	return DrillState{Level: Drilled, MainClass: &mc}
}

func (c *DrillController) Drilled() bool { return c.mainClass != nil }

// Drill enters the main class at index of the top-level rows. It reports
// whether the state changed.
func (c *DrillController) Drill(mainClasses []model.ClassificationNode, index int) bool {
	if c.mainClass != nil || index < 0 || index >= len(mainClasses) {
		return false
	}
	mc := mainClasses[index]
	c.mainClass = &mc
	return true
}

// DrillCode enters the main class with the given code
func (c *DrillController) DrillCode(mainClasses []model.ClassificationNode, code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for i, mc := range mainClasses {
		if mc.Code == code {
			return c.Drill(mainClasses, i)
		}
	}
	return false
}

// Back returns to the main classes
func (c *DrillController) Back() bool {
	if c.mainClass == nil {
		return false
	}
	c.mainClass = nil
	return true
}

// Reset forces the top level, used whenever the dataset reloads
func (c *DrillController) Reset() {
	c.mainClass = nil
}

// Rows returns what the aggregator should be fed
func (c *DrillController) Rows(mainClasses []model.ClassificationNode) []model.ClassificationNode {
	if c.mainClass == nil {
		return mainClasses
	}
	return c.mainClass.Subclasses
}

// KeyColumn names the CSV key column of the current level
func (c *DrillController) KeyColumn() string {
	if c.mainClass == nil {
		return "main_class_letter"
	}
	return "subclass_letter"
}
