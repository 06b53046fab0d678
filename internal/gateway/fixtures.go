package gateway

import "slices"

// Test account accepted by the Fixture gateway.
const (
	TestEmail    = "test@example.com"
	TestPassword = "Test@123"
	TestUserName = "Test User"
)

// FallbackToken is the token served when the remote login falls back.
const FallbackToken = "mock-jwt-token-12345"

// InvalidCredentialsMessage is the 401 body message for a rejected login.
const InvalidCredentialsMessage = "Invalid email or password"

var patientRecords = []RawRecord{
	{ID: 1, FirstName: "John", LastName: "Smith", Email: "john.smith@example.com", Avatar: "https://randomuser.me/api/portraits/men/1.jpg", Description: "Patient ID: 1001 - Heart condition"},
	{ID: 2, FirstName: "Sarah", LastName: "Johnson", Email: "sarah.johnson@example.com", Avatar: "https://randomuser.me/api/portraits/women/2.jpg", Description: "Patient ID: 1002 - Diabetes type 2"},
	{ID: 3, FirstName: "Michael", LastName: "Williams", Email: "michael.williams@example.com", Avatar: "https://randomuser.me/api/portraits/men/3.jpg", Description: "Patient ID: 1003 - Hypertension"},
	{ID: 4, FirstName: "Emily", LastName: "Brown", Email: "emily.brown@example.com", Avatar: "https://randomuser.me/api/portraits/women/4.jpg", Description: "Patient ID: 1004 - Asthma"},
	{ID: 5, FirstName: "David", LastName: "Jones", Email: "david.jones@example.com", Avatar: "https://randomuser.me/api/portraits/men/5.jpg", Description: "Patient ID: 1005 - Arthritis"},
	{ID: 6, FirstName: "Lisa", LastName: "Garcia", Email: "lisa.garcia@example.com", Avatar: "https://randomuser.me/api/portraits/women/6.jpg", Description: "Patient ID: 1006 - Migraine"},
	{ID: 7, FirstName: "Robert", LastName: "Miller", Email: "robert.miller@example.com", Avatar: "https://randomuser.me/api/portraits/men/7.jpg", Description: "Patient ID: 1007 - Lower back pain"},
	{ID: 8, FirstName: "Jennifer", LastName: "Davis", Email: "jennifer.davis@example.com", Avatar: "https://randomuser.me/api/portraits/women/8.jpg", Description: "Patient ID: 1008 - Anxiety disorder"},
	{ID: 9, FirstName: "Thomas", LastName: "Rodriguez", Email: "thomas.rodriguez@example.com", Avatar: "https://randomuser.me/api/portraits/men/9.jpg", Description: "Patient ID: 1009 - Insomnia"},
	{ID: 10, FirstName: "Maria", LastName: "Martinez", Email: "maria.martinez@example.com", Avatar: "https://randomuser.me/api/portraits/women/10.jpg", Description: "Patient ID: 1010 - Depression"},
	{ID: 11, FirstName: "James", LastName: "Anderson", Email: "james.anderson@example.com", Avatar: "https://randomuser.me/api/portraits/men/11.jpg", Description: "Patient ID: 1011 - COPD"},
	{ID: 12, FirstName: "Patricia", LastName: "Taylor", Email: "patricia.taylor@example.com", Avatar: "https://randomuser.me/api/portraits/women/12.jpg", Description: "Patient ID: 1012 - Osteoporosis"},
}

// FixtureList returns a fresh copy of the twelve static patient records.
// The page metadata is fixed regardless of the requested page.
func FixtureList() *ListResponse {
	return &ListResponse{
		Data:       slices.Clone(patientRecords),
		Page:       1,
		PerPage:    12,
		Total:      12,
		TotalPages: 1,
	}
}

// FallbackLogin returns the static login result served when the remote login fails.
func FallbackLogin() *AuthResult {
	return &AuthResult{
		Token: FallbackToken,
		User: &User{
			Email: TestEmail,
			ID:    1,
			Name:  TestUserName,
		},
	}
}
