package rnc

import (
	"fmt"
	"regexp"
	"strconv"
)

var numeroPattern = regexp.MustCompile(`^RNC:(\d{3,})/(\d{4})$`)

// NextSequencial returns the sequencial following the highest one already
// allocated for a supplier and year (0 when none exists).
func NextSequencial(currentMax int) int {
	if currentMax < 0 {
		currentMax = 0
	}
	return currentMax + 1
}

// FormatNumero builds the human-readable notice number, e.g. RNC:003/2025.
func FormatNumero(sequencial int, ano int) string {
	return fmt.Sprintf("RNC:%03d/%d", sequencial, ano)
}

func ParseNumero(numero string) (sequencial int, ano int, ok bool) {
	m := numeroPattern.FindStringSubmatch(numero)
	if m == nil {
		return 0, 0, false
	}
	sequencial, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	ano, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return sequencial, ano, true
}
