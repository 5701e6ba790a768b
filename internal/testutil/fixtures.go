package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mika/mahjong-copilot-server/internal/domain"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	displayName string
	password    string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		displayName: fmt.Sprintf("testuser_%s", uuid.New().String()[:8]),
		password:    "testpassword123",
	}
}

// WithDisplayName sets the display name
func (b *UserBuilder) WithDisplayName(name string) *UserBuilder {
	b.displayName = name
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		DisplayName:  b.displayName,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// AuthResponse matches the API auth response
type AuthResponse struct {
	User struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// BuildAndAuthenticate creates a user via API and returns the user and access token
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	reqBody := map[string]string{
		"displayName": b.displayName,
		"password":    b.password,
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(ts.APIURL("/auth/register"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	userID, _ := uuid.Parse(authResp.User.ID)
	user := &domain.User{
		ID:          userID,
		DisplayName: authResp.User.DisplayName,
	}

	return user, authResp.AccessToken
}

// MatchRecordBuilder creates persisted match records for history tests
type MatchRecordBuilder struct {
	roomCode string
	outcome  string
	winnerID *uuid.UUID
	players  []domain.MatchParticipant
}

// NewMatchRecordBuilder creates a builder with sensible defaults
func NewMatchRecordBuilder() *MatchRecordBuilder {
	return &MatchRecordBuilder{
		roomCode: "TEST",
		outcome:  domain.OutcomeMahjong,
	}
}

// WithRoomCode sets the room code
func (b *MatchRecordBuilder) WithRoomCode(code string) *MatchRecordBuilder {
	b.roomCode = code
	return b
}

// WithOutcome sets the match outcome
func (b *MatchRecordBuilder) WithOutcome(outcome string) *MatchRecordBuilder {
	b.outcome = outcome
	return b
}

// WithWinner sets the winning player
func (b *MatchRecordBuilder) WithWinner(id uuid.UUID) *MatchRecordBuilder {
	b.winnerID = &id
	return b
}

// WithParticipant adds a player summary
func (b *MatchRecordBuilder) WithParticipant(id uuid.UUID, name string, seat domain.Wind) *MatchRecordBuilder {
	b.players = append(b.players, domain.MatchParticipant{
		PlayerID:    id,
		DisplayName: name,
		Seat:        seat,
		TileCount:   domain.HandSize,
		IsWinner:    b.winnerID != nil && *b.winnerID == id,
	})
	return b
}

// Build creates the match record in the database
func (b *MatchRecordBuilder) Build(t *testing.T, db *gorm.DB) *domain.MatchRecord {
	t.Helper()

	playersJSON, err := json.Marshal(b.players)
	if err != nil {
		t.Fatalf("failed to marshal participants: %v", err)
	}

	record := &domain.MatchRecord{
		ID:         uuid.New(),
		RoomCode:   b.roomCode,
		WinnerID:   b.winnerID,
		Rounds:     2,
		Turns:      9,
		Outcome:    b.outcome,
		Players:    playersJSON,
		FinishedAt: time.Now(),
		CreatedAt:  time.Now(),
	}

	if err := db.Create(record).Error; err != nil {
		t.Fatalf("failed to create match record: %v", err)
	}

	return record
}
