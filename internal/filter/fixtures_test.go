package filter_test

import (
	"time"

	"github.com/UnknownOlympus/talentfit/internal/models"
)

func day(value string) time.Time {
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func dayPtr(value string) *time.Time {
	d := day(value)
	return &d
}

func projectFixture() []models.Project {
	return []models.Project{
		{
			ID:             1,
			Name:           "E-commerce Platform",
			Description:    "Modernize the storefront and checkout",
			ClientName:     "ShopCo",
			RoleTitle:      "Frontend Engineer",
			RequiredSeats:  5,
			StartDate:      day("2024-04-01"),
			EndDate:        day("2024-10-01"),
			Status:         models.ProjectOpen,
			Priority:       models.PriorityHigh,
			RequiredSkills: []string{"React", "TypeScript"},
			GeoPreference:  "US-West",
			Industry:       "E-commerce",
		},
		{
			ID:             2,
			Name:           "Mobile App",
			Description:    "Native banking app for iOS and Android",
			ClientName:     "FinBank",
			RoleTitle:      "Mobile Developer",
			RequiredSeats:  3,
			StartDate:      day("2024-05-20"),
			EndDate:        day("2024-12-20"),
			Status:         models.ProjectPlanning,
			Priority:       models.PriorityMedium,
			RequiredSkills: []string{"React Native", "Go"},
			GeoPreference:  "Europe",
			Industry:       "Finance",
		},
		{
			ID:             3,
			Name:           "Data Dashboard",
			Description:    "Analytics dashboard over the data warehouse",
			ClientName:     "Insights Ltd",
			RoleTitle:      "Data Engineer",
			RequiredSeats:  2,
			StartDate:      day("2024-08-01"),
			EndDate:        day("2025-02-01"),
			Status:         models.ProjectOnHold,
			Priority:       models.PriorityLow,
			RequiredSkills: []string{"Python", "PostgreSQL"},
			GeoPreference:  "US-West",
			Industry:       "Technology",
		},
	}
}

func profile(id int64, first, last, geo string, flag bool, notice, end *time.Time, skills []string, industry string) models.EmployeeProfile {
	return models.EmployeeProfile{
		ID:               id,
		UserID:           id,
		Geo:              geo,
		AvailabilityFlag: flag,
		NoticeDate:       notice,
		EndDate:          end,
		Skills:           skills,
		Industry:         industry,
		User:             models.User{ID: id, FirstName: first, LastName: last, Role: models.RoleEmployee},
	}
}

func employeeFixture() []models.Employee {
	return models.ToEmployees([]models.EmployeeProfile{
		profile(1, "John", "Doe", "US-West", true, nil, dayPtr("2025-03-15"),
			[]string{"React", "TypeScript", "Node.js", "CSS", "Tailwind"}, "Technology"),
		profile(2, "Jane", "Smith", "US-East", false, dayPtr("2024-06-20"), dayPtr("2024-08-20"),
			[]string{"Go", "PostgreSQL", "Docker", "Kubernetes", "AWS"}, "Fintech"),
		profile(3, "Alex", "Johnson", "Europe", true, nil, nil,
			[]string{"React", "Python", "Django", "GraphQL"}, "Healthcare"),
		profile(4, "Sarah", "Chen", "Asia-Pacific", false, nil, nil,
			[]string{"Python", "Machine Learning", "Deep Learning", "TensorFlow"}, "Technology"),
		profile(5, "Mike", "Wilson", "US-Central", true, dayPtr("2024-10-31"), dayPtr("2024-12-31"),
			[]string{"UI Design", "Figma", "Design Systems", "Sketch"}, "Retail"),
		profile(6, "Lisa", "Anderson", "US-West", true, nil, nil,
			[]string{"Java", "Spring Boot", "Microservices", "Kafka"}, "Banking"),
		profile(7, "David", "Brown", "Canada", false, nil, nil,
			[]string{"UX Design", "User Research", "Prototyping"}, "Education"),
		profile(8, "Emma", "Garcia", "Europe", true, nil, dayPtr("2025-05-20"),
			[]string{"Test Automation", "Selenium", "API Testing", "Cypress"}, "Technology"),
	})
}
