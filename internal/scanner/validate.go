package scanner

import "sort"

// Validator accepts or rejects a single regex hit.
type Validator func(hit string) bool

var validators = map[string]Validator{
	"rrn":    validRRN,
	"bizreg": validBizReg,
	"luhn":   validLuhn,
}

// Validators lists the names usable in PatternSpec.Validator.
func Validators() []string {
	names := make([]string, 0, len(validators))
	for n := range validators {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func digits(s string) []int {
	var out []int
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, int(r-'0'))
		}
	}
	return out
}

// validRRN checks the resident registration number check digit.
func validRRN(hit string) bool {
	d := digits(hit)
	if len(d) != 13 {
		return false
	}
	weights := []int{2, 3, 4, 5, 6, 7, 8, 9, 2, 3, 4, 5}
	sum := 0
	for i, w := range weights {
		sum += d[i] * w
	}
	return (11-sum%11)%10 == d[12]
}

// validBizReg checks the business registration number check digit.
func validBizReg(hit string) bool {
	d := digits(hit)
	if len(d) != 10 {
		return false
	}
	weights := []int{1, 3, 7, 1, 3, 7, 1, 3, 5}
	sum := 0
	for i, w := range weights {
		sum += d[i] * w
	}
	sum += d[8] * 5 / 10
	return (10-sum%10)%10 == d[9]
}

func validLuhn(hit string) bool {
	d := digits(hit)
	if len(d) < 12 {
		return false
	}
	sum := 0
	double := false
	for i := len(d) - 1; i >= 0; i-- {
		v := d[i]
		if double {
			v *= 2
			if v > 9 {
				v -= 9
			}
		}
		sum += v
		double = !double
	}
	return sum%10 == 0
}
