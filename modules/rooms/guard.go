package rooms

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	roomNamePattern   = regexp.MustCompile(`^[a-z0-9-]{1,50}$`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// NormalizeRoomName trims, lowercases, and collapses internal whitespace
// to hyphens. The result still needs a ValidateRoomName check.
func NormalizeRoomName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return whitespacePattern.ReplaceAllString(name, "-")
}

// ValidateRoomName checks a normalized room name against the allowed
// pattern.
func ValidateRoomName(name string) error {
	if !roomNamePattern.MatchString(name) {
		return ErrInvalidRoomName
	}
	return nil
}

// JoinDecision is the outcome of an authorization check.
type JoinDecision struct {
	CanJoin bool   `json:"canJoin"`
	Reason  string `json:"reason,omitempty"`
}

// Guard decides whether an identity may join a room, promoting membership
// when a valid credential is presented.
type Guard struct {
	repo   *Repository
	hasher *PasswordHasher
}

// NewGuard creates a guard over the repository.
func NewGuard(repo *Repository, hasher *PasswordHasher) *Guard {
	return &Guard{repo: repo, hasher: hasher}
}

// AuthorizeJoin applies the join rules in order: public rooms always
// allow; recorded members allow; a matching invite code or password
// allows and records the identity as a member. Anything else is denied.
func (g *Guard) AuthorizeJoin(room *Room, username, inviteCode, password string) (JoinDecision, error) {
	if !room.IsPrivate {
		return JoinDecision{CanJoin: true}, nil
	}

	isMember, err := g.repo.IsMember(room.ID, username)
	if err != nil {
		return JoinDecision{}, fmt.Errorf("membership lookup failed: %w", err)
	}
	if isMember {
		return JoinDecision{CanJoin: true, Reason: "Already a member"}, nil
	}

	if inviteCode != "" && room.InviteCode != "" &&
		strings.ToUpper(strings.TrimSpace(inviteCode)) == room.InviteCode {
		if err := g.promote(room, username); err != nil {
			return JoinDecision{}, err
		}
		return JoinDecision{CanJoin: true, Reason: "Valid invite code"}, nil
	}

	if password != "" && room.PasswordHash != "" &&
		g.hasher.Verify(password, room.PasswordHash) {
		if err := g.promote(room, username); err != nil {
			return JoinDecision{}, err
		}
		return JoinDecision{CanJoin: true, Reason: "Valid password"}, nil
	}

	return JoinDecision{
		CanJoin: false,
		Reason:  "Private room - invite code or password required",
	}, nil
}

// promote records a membership earned through a credential. Denials never
// reach here, so a promoted identity always joins as a plain member.
func (g *Guard) promote(room *Room, username string) error {
	if err := g.repo.AddMember(room.ID, username, RoleMember); err != nil {
		return fmt.Errorf("membership promotion failed: %w", err)
	}
	return nil
}
