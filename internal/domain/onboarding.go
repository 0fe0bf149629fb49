package domain

// InterestTags are the selectable interests, in display order
var InterestTags = []string{
	"Technology",
	"Healthcare",
	"Finance",
	"Education",
	"Arts",
	"Sports",
	"Engineering",
	"Marketing",
	"Design",
	"Science",
	"Business",
	"Law",
}

// GradeOptions are the selectable grade levels
var GradeOptions = []string{
	"High School Freshman",
	"High School Sophomore",
	"High School Junior",
	"High School Senior",
	"College Freshman",
	"College Sophomore",
	"College Junior",
	"College Senior",
	"Graduate Student",
	"Recent Graduate",
	"Working Professional",
}

// CareerGoals are the selectable career goals
var CareerGoals = []string{
	"Get into my dream college",
	"Land my first job",
	"Switch careers",
	"Get promoted",
	"Start my own business",
	"Learn new skills",
}

// Age bounds accepted by the profile survey
const (
	MinAge = 13
	MaxAge = 100
)

func IsInterestTag(tag string) bool   { return contains(InterestTags, tag) }
func IsGradeOption(grade string) bool { return contains(GradeOptions, grade) }
func IsCareerGoal(goal string) bool   { return contains(CareerGoals, goal) }

func contains(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}
