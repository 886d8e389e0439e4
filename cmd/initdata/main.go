// cmd/initdata seeds a running portal with fake students, approved alumni,
// mentorships and a few messages. It talks to the public API only.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	baseURL   = flag.String("url", env("API_BASE_URL", "http://localhost:3001"), "Server base URL")
	adminMail = flag.String("admin-email", env("ADMIN_EMAIL", "admin@example.com"), "Admin e-mail")
	adminPass = flag.String("admin-pass", env("ADMIN_PASSWORD", "admin-password"), "Admin password")
	domain    = flag.String("domain", env("STUDENT_EMAIL_DOMAIN", "mgmcen.ac.in"), "Student e-mail domain")
	pass      = flag.String("pass", env("PASSWORD", "Password123"), "Password for seeded users")
	nStudents = flag.Int("students", envInt("STUDENTS", 30), "How many students to create")
	nAlumni   = flag.Int("alumni", envInt("ALUMNI", 8), "How many alumni to create")
	perMentor = flag.Int("mentees", envInt("MENTEES", 2), "Students assigned to each alumni")
)

var (
	departments = []string{"Information Technology", "Computer Science", "Mechanical", "Electronics", "Civil"}
	years       = []string{"1st Year", "2nd Year", "3rd Year", "4th Year"}
	genders     = []string{"Male", "Female", "Other"}
	skills      = []string{"Go", "Python", "React", "SQL", "Docker", "Kubernetes", "ML", "DSA", "Figma"}
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			return i
		}
	}
	return def
}

type account struct {
	id    string
	email string
	token string
}

func main() {
	flag.Parse()
	gofakeit.Seed(time.Now().UnixNano())

	fmt.Printf("Seeding %d students and %d alumni on %s\n", *nStudents, *nAlumni, *baseURL)
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}
	fmt.Println("✔ done")
}

func run() error {
	adminToken, err := login(*adminMail, *adminPass)
	if err != nil {
		return fmt.Errorf("admin login: %w", err)
	}

	students := make([]account, 0, *nStudents)
	for i := 0; i < *nStudents; i++ {
		s, err := seedStudent(i)
		if err != nil {
			return err
		}
		students = append(students, s)
	}
	fmt.Printf("• %d students\n", len(students))

	next := 0
	for i := 0; i < *nAlumni; i++ {
		a, err := seedAlumni(i, adminToken)
		if err != nil {
			return err
		}

		end := min(next+*perMentor, len(students))
		if next < end {
			if err := mentor(a, students[next:end]); err != nil {
				return err
			}
		}
		next = end
	}
	fmt.Printf("• %d alumni, %d students mentored\n", *nAlumni, next)
	return nil
}

func seedStudent(i int) (account, error) {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	email := fmt.Sprintf("%s.%s%d@%s", strings.ToLower(first), strings.ToLower(last), i, *domain)

	acc, err := register(email, "student")
	if err != nil {
		return acc, err
	}

	dept := gofakeit.RandomString(departments)
	profile := map[string]any{
		"first_name":   first,
		"last_name":    last,
		"phone":        gofakeit.Numerify("9#########"),
		"gender":       gofakeit.RandomString(genders),
		"student_id":   gofakeit.Numerify("MGM20##IT###"),
		"department":   dept,
		"course":       "B. Tech. " + dept,
		"current_year": gofakeit.RandomString(years),
		"skills":       pickSkills(3),
	}
	return acc, put("/api/student/profile", profile, acc.token)
}

func seedAlumni(i int, adminToken string) (account, error) {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	email := fmt.Sprintf("%s.%s%d@%s", strings.ToLower(first), strings.ToLower(last), i, gofakeit.DomainName())

	acc, err := register(email, "alumni")
	if err != nil {
		return acc, err
	}
	if _, err := call(http.MethodPost, "/api/admin/alumni/"+acc.id+"/approve", nil, adminToken, http.StatusOK); err != nil {
		return acc, fmt.Errorf("approve %s: %w", email, err)
	}

	// fresh token issued after approval
	if acc.token, err = login(email, *pass); err != nil {
		return acc, err
	}

	dept := gofakeit.RandomString(departments)
	profile := map[string]any{
		"first_name":      first,
		"last_name":       last,
		"gender":          gofakeit.RandomString(genders),
		"department":      dept,
		"course":          "B. Tech. " + dept,
		"graduation_year": gofakeit.Number(2005, 2023),
		"current_company": gofakeit.Company(),
		"designation":     gofakeit.JobTitle(),
	}
	return acc, put("/api/alumni/profile", profile, acc.token)
}

func mentor(a account, mentees []account) error {
	ids := make([]string, len(mentees))
	for i, s := range mentees {
		ids[i] = s.id
	}
	if _, err := call(http.MethodPost, "/api/mentorship/start", map[string]any{"studentIds": ids}, a.token, http.StatusOK); err != nil {
		return fmt.Errorf("start mentorship for %s: %w", a.email, err)
	}

	for _, s := range mentees {
		greeting := map[string]string{"message": gofakeit.Sentence(8), "studentId": s.id}
		if _, err := call(http.MethodPost, "/api/mentorship/messages", greeting, a.token, http.StatusCreated); err != nil {
			return err
		}
		reply := map[string]string{"message": gofakeit.Question()}
		if _, err := call(http.MethodPost, "/api/mentorship/messages", reply, s.token, http.StatusCreated); err != nil {
			return err
		}
	}
	return nil
}

func pickSkills(n int) []string {
	out := make([]string, 0, n)
	seen := map[string]bool{}
	for len(out) < n {
		s := gofakeit.RandomString(skills)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func register(email, role string) (account, error) {
	body := map[string]string{"email": email, "password": *pass, "role": role}
	data, err := call(http.MethodPost, "/api/auth/register", body, "", http.StatusCreated)
	if err != nil {
		return account{}, fmt.Errorf("register %s: %w", email, err)
	}

	var r struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return account{}, err
	}
	return account{id: r.User.ID, email: email, token: r.Token}, nil
}

func login(email, password string) (string, error) {
	data, err := call(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, "", http.StatusOK)
	if err != nil {
		return "", err
	}
	var r struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return "", err
	}
	return r.Token, nil
}

func put(path string, body any, token string) error {
	_, err := call(http.MethodPut, path, body, token, http.StatusOK)
	return err
}

func call(method, path string, body any, token string, want int) ([]byte, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, *baseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != want {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, data)
	}
	return data, nil
}
