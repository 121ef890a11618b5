package handlers

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// number accepts either a JSON number or a numeric string. Bound inputs
// send whichever the browser produced.
type number struct {
	value float64
	set   bool
}

func (n *number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	n.value, n.set = f, true
	return nil
}

// Int returns the value when it is set and whole.
func (n number) Int() (int, bool) {
	if !n.set || n.value != math.Trunc(n.value) || math.IsInf(n.value, 0) {
		return 0, false
	}
	return int(n.value), true
}

type authSignals struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type horizonSignals struct {
	Horizon number `json:"horizon"`
}

type reorderSignals struct {
	LeadTime     number `json:"leadTime"`
	ServiceLevel number `json:"serviceLevel"`
	Inventory    number `json:"inventory"`
}

type simulateSignals struct {
	Inventory   number `json:"inventory"`
	Simulations number `json:"simulations"`
}
