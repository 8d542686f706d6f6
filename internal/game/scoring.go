package game

import "time"

const (
	BaseXP         = 10
	SpeedBonusXP   = 5
	IncorrectXP    = 5
	SpeedThreshold = 5 * time.Second
)

type XPBreakdown struct {
	Base   int `json:"base"`
	Speed  int `json:"speed"`
	Streak int `json:"streak"`
	Total  int `json:"total"`
}

// CorrectXP scores a correct answer. streak is the value before this answer.
func CorrectXP(streak int, responseTime time.Duration) XPBreakdown {
	b := XPBreakdown{Base: BaseXP, Streak: StreakBonus(streak)}
	if responseTime < SpeedThreshold {
		b.Speed = SpeedBonusXP
	}
	b.Total = b.Base + b.Speed + b.Streak
	return b
}

func StreakBonus(streak int) int {
	switch {
	case streak < 3:
		return 0
	case streak < 5:
		return 5
	case streak < 7:
		return 10
	default:
		return 15
	}
}

// ApplyPenalty floors the total at zero.
func ApplyPenalty(total int) int {
	total -= IncorrectXP
	if total < 0 {
		return 0
	}
	return total
}

// AwardBonus returns the bingo bonus for the n-th award of a session.
func AwardBonus(n int) int {
	switch n {
	case 1:
		return 50
	case 2:
		return 40
	case 3:
		return 30
	default:
		return 20
	}
}

// Accuracy is a percentage; zero answers yield 0.
func Accuracy(correct, incorrect int) float64 {
	total := correct + incorrect
	if total == 0 {
		return 0
	}
	return float64(correct) * 100 / float64(total)
}
