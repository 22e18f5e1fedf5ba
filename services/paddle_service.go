package services

import (
	"context"
	"log"
	"time"

	"github.com/PaddleHQ/paddle-go-sdk"
)

// PaddleService backs the premium tier. Paying through Paddle flips
// is_premium on the user row, which lifts the free-tier caps.
type PaddleService struct {
	PaddleClient *paddle.SDK
	userService  *UserService
}

func NewPaddleService(PaddleClient *paddle.SDK, userService *UserService) *PaddleService {
	return &PaddleService{PaddleClient: PaddleClient, userService: userService}
}

// UnlockPremium is called from the Paddle webhook on a paid
// transaction. The clerk id travels in the transaction's custom data.
func (s *PaddleService) UnlockPremium(clerkID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.userService.SetPremium(ctx, clerkID, true); err != nil {
		log.Printf("UnlockPremium: failed for user %s: %v", clerkID, err)
		return
	}
	log.Printf("UnlockPremium: premium unlocked for user %s", clerkID)
}

// RevokePremium removes premium when a subscription lapses.
func (s *PaddleService) RevokePremium(clerkID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.userService.SetPremium(ctx, clerkID, false); err != nil {
		log.Printf("RevokePremium: failed for user %s: %v", clerkID, err)
		return
	}
	log.Printf("RevokePremium: premium revoked for user %s", clerkID)
}
