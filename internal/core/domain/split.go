package domain

import (
	"fmt"

	"github.com/govalues/decimal"
)

// shareTolerance is the acceptable residue when validating manual shares.
var shareTolerance = decimal.MustParse("0.01")

// SplitEqually divides total across peopleCount shares. The base share is the
// per-person amount truncated to whole cents; whatever cents remain are folded
// entirely into the first share so that the shares always sum to total exactly.
func SplitEqually(total decimal.Decimal, peopleCount int) ([]decimal.Decimal, error) {
	if !total.IsPos() {
		return nil, ErrInvalidAmount
	}
	if peopleCount < 2 {
		return nil, ErrSplitPeopleCount
	}

	people, err := decimal.New(int64(peopleCount), 0)
	if err != nil {
		return nil, err
	}
	quotient, err := total.Quo(people)
	if err != nil {
		return nil, err
	}
	base := quotient.Trunc(2)

	allocated, err := base.Mul(people)
	if err != nil {
		return nil, err
	}
	remainder, err := total.Sub(allocated)
	if err != nil {
		return nil, err
	}
	first, err := base.Add(remainder)
	if err != nil {
		return nil, err
	}

	shares := make([]decimal.Decimal, peopleCount)
	shares[0] = first
	for i := 1; i < peopleCount; i++ {
		shares[i] = base
	}
	return shares, nil
}

// ValidateShares accepts manually entered shares when they sum to total within
// one cent.
func ValidateShares(total decimal.Decimal, shares []SplitShare) error {
	if len(shares) < 2 {
		return ErrSplitPeopleCount
	}
	sum := decimal.Zero
	var err error
	for _, s := range shares {
		sum, err = sum.Add(s.Amount)
		if err != nil {
			return err
		}
	}
	diff, err := total.Sub(sum)
	if err != nil {
		return err
	}
	if diff.Abs().Cmp(shareTolerance) > 0 {
		return ErrSplitMismatch
	}
	return nil
}

// EqualShares builds the share list for an equal split, naming the first share
// after the caller.
func EqualShares(total decimal.Decimal, peopleCount int, caller string) ([]SplitShare, error) {
	amounts, err := SplitEqually(total, peopleCount)
	if err != nil {
		return nil, err
	}
	shares := make([]SplitShare, peopleCount)
	for i, a := range amounts {
		shares[i] = SplitShare{Person: personLabel(i, caller), Amount: a}
	}
	return shares, nil
}

func personLabel(i int, caller string) string {
	if i == 0 {
		if caller != "" {
			return caller
		}
		return "you"
	}
	return fmt.Sprintf("person %d", i+1)
}
