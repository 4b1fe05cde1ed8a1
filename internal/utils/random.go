package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/mozillazg/go-pinyin"
	"github.com/showbase-dev/showbase/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var firstNames = []string{
	"Alex", "Jordan", "Taylor", "Morgan", "Casey", "Riley", "Jamie", "Avery", "Quinn", "Drew",
	"Sam", "Robin", "Cameron", "Parker", "Reese", "Hayden", "Emerson", "Rowan", "Skyler", "Dana",
}
var lastNames = []string{
	"Smith", "Tremblay", "Martin", "Roy", "Gagnon", "Lee", "Wilson", "Johnson", "MacDonald", "Taylor",
	"Campbell", "Anderson", "Leblanc", "Cote", "Bouchard", "Wong", "Singh", "Brown", "Clark", "Young",
}

func GenerateRandomName() (string, string) {
	return firstNames[rand.Intn(len(firstNames))], lastNames[rand.Intn(len(lastNames))]
}

// asciiName lowercases a name part for use in an email address. Han
// characters are romanised; anything else that is not a letter or digit is dropped.
func asciiName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Han, r):
			for _, p := range pinyin.LazyConvert(string(r), nil) {
				b.WriteString(p)
			}
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// EmailLocalPart builds "first.last" from a worker's name.
func EmailLocalPart(firstName, lastName string) string {
	first, last := asciiName(firstName), asciiName(lastName)
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + "." + last
	}
}

var digits = "0123456789"

// GenerateWorkerEmail builds first.last@domain. withSuffix appends a short
// random number for when the plain address is already taken.
func GenerateWorkerEmail(firstName, lastName, emailDomainName string, withSuffix bool) string {
	local := EmailLocalPart(firstName, lastName)
	if local == "" {
		local = "worker"
	}

	if withSuffix {
		digitsLength := rand.Intn(3) + 1
		for i := 0; i < digitsLength; i++ {
			local += string(digits[rand.Intn(len(digits))])
		}
	}

	return local + "@" + emailDomainName
}

func GenerateRandomWorker(password string, emailDomainName string) (*domain.Worker, error) {
	firstName, lastName := GenerateRandomName()
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	worker := &domain.Worker{
		FirstName:        firstName,
		LastName:         lastName,
		Email:            GenerateWorkerEmail(firstName, lastName, emailDomainName, true),
		PhoneNumber:      fmt.Sprintf("416-555-%04d", rand.Intn(10000)),
		PasswordHash:     string(passwordHash),
		IsAccountManager: rand.Intn(8) == 0,
		Roles:            GenerateRandomSubset(domain.EventRoles),
	}

	return worker, nil
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	randomPassword := make([]rune, length)
	for i := range randomPassword {
		randomPassword[i] = letters[rand.Intn(len(letters))]
	}
	return string(randomPassword)
}

// GenerateRandomSubset picks a non-empty random subset using a Fisher-Yates shuffle.
func GenerateRandomSubset[T any](arr []T) []T {
	arrCopy := append([]T{}, arr...)

	for i := 0; i < len(arrCopy)-1; i++ {
		j := rand.Intn(len(arrCopy)-i) + i
		arrCopy[i], arrCopy[j] = arrCopy[j], arrCopy[i]
	}

	l := rand.Intn(len(arrCopy)) + 1
	return arrCopy[:l]
}

var venues = []string{
	"Metro Convention Centre", "Roy Thomson Hall", "Enercare Centre", "Beanfield Centre",
	"Fairmont Royal York", "Art Gallery of Ontario", "Evergreen Brick Works",
}
var showWords = []string{
	"Summit", "Gala", "Awards", "Conference", "Launch", "Forum", "Showcase", "Expo",
}

func GenerateRandomEvent(showNumber int64, accountManagerID *int64) *domain.Event {
	return &domain.Event{
		ShowName:         fmt.Sprintf("%s %s %d", lastNames[rand.Intn(len(lastNames))], showWords[rand.Intn(len(showWords))], time.Now().Year()),
		ShowNumber:       showNumber,
		AccountManagerID: accountManagerID,
		Location:         venues[rand.Intn(len(venues))],
		Active:           rand.Intn(4) != 0,
	}
}

// GenerateRandomCrew creates a crew starting on a quarter hour within the next month.
func GenerateRandomCrew(eventID int64) *domain.Crew {
	day := time.Now().Truncate(24 * time.Hour).AddDate(0, 0, rand.Intn(30))
	start := day.Add(time.Duration(6+rand.Intn(10))*time.Hour + time.Duration(rand.Intn(4)*15)*time.Minute)
	end := start.Add(time.Duration(3+rand.Intn(8)) * time.Hour)

	roles := map[string]int32{}
	for _, role := range GenerateRandomSubset(domain.EventRoles) {
		roles[role] = int32(rand.Intn(3) + 1)
	}

	return &domain.Crew{
		EventID:    eventID,
		StartTime:  start,
		EndTime:    end,
		Roles:      roles,
		ShiftTypes: GenerateRandomSubset(domain.ShiftTypes),
	}
}
