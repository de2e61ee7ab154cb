package service

import (
	"context"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/dto"
)

// AuthBroker runs the biometric and OTP ceremonies and mints ballot sessions.
type AuthBroker interface {
	Identify(ctx context.Context, r dto.IdentifyRequest) (*dto.IdentifyResponse, error)
	EnrollBiometric(ctx context.Context, r dto.BiometricRegisterRequest, ip, ua string) error
	BeginBiometric(ctx context.Context, r dto.BiometricChallengeRequest) (*dto.BiometricChallengeResponse, error)
	FinishBiometric(ctx context.Context, r dto.BiometricVerifyRequest, ip, ua string) (*dto.SessionResponse, error)
	SendOTP(ctx context.Context, r dto.OTPSendRequest, ip, ua string) error
	VerifyOTP(ctx context.Context, r dto.OTPVerifyRequest, ip, ua string) (*dto.SessionResponse, error)
}
