package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"healthcare-crm-backend/config"
	"healthcare-crm-backend/internal/converter"
	"healthcare-crm-backend/internal/delivery/dto"
	"healthcare-crm-backend/internal/domain/entity"
	"healthcare-crm-backend/internal/domain/repository"
	"healthcare-crm-backend/internal/infrastructure/database"
	"healthcare-crm-backend/internal/service"
	"healthcare-crm-backend/pkg/apperr"
	"healthcare-crm-backend/pkg/jwt"
	"healthcare-crm-backend/pkg/phone"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

const otpDigits = 6

// readAndCountAttemptScript returns the stored hash and the attempt count after
// incrementing it, or nil when no code is pending.
//
// KEYS[1] = otp:<phone>
var readAndCountAttemptScript = redis.NewScript(`
	local hash = redis.call('HGET', KEYS[1], 'hash')
	if not hash then
		return false
	end
	local attempts = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
	return {hash, attempts}
`)

type AuthUsecase interface {
	RequestOTP(ctx context.Context, req *dto.RequestOTPRequest) (*dto.OTPRequestResponse, error)
	VerifyOTP(ctx context.Context, req *dto.VerifyOTPRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, agentID uuid.UUID, accessTokenID, refreshTokenID string) error
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	GetCurrentAgent(ctx context.Context, agentID uuid.UUID) (*dto.AgentResponse, error)
}

type authUsecase struct {
	transactor  database.Transactor
	log         *logrus.Logger
	agentRepo   repository.AgentRepository
	jwtService  *jwt.JWTService
	redisClient *redis.Client
	sender      service.MessageSender
	notifier    service.NotificationService
	cfg         config.OTPConfig
	limiter     *rate.Limiter
	codeGen     func() (string, error)
	hashCost    int
	now         func() time.Time
}

func NewAuthUsecase(
	transactor database.Transactor,
	log *logrus.Logger,
	agentRepo repository.AgentRepository,
	jwtService *jwt.JWTService,
	redisClient *redis.Client,
	sender service.MessageSender,
	notifier service.NotificationService,
	cfg config.OTPConfig,
) AuthUsecase {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.ResendInterval <= 0 {
		cfg.ResendInterval = time.Minute
	}

	limit, burst := rate.Inf, 1
	if cfg.SendRate > 0 {
		limit = rate.Limit(cfg.SendRate)
		if int(cfg.SendRate) > burst {
			burst = int(cfg.SendRate)
		}
	}

	return &authUsecase{
		transactor:  transactor,
		log:         log,
		agentRepo:   agentRepo,
		jwtService:  jwtService,
		redisClient: redisClient,
		sender:      sender,
		notifier:    notifier,
		cfg:         cfg,
		limiter:     rate.NewLimiter(limit, burst),
		codeGen:     randomCode,
		hashCost:    bcrypt.DefaultCost,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func otpKey(p string) string      { return "otp:" + p }
func throttleKey(p string) string { return "otp:throttle:" + p }

func (u *authUsecase) RequestOTP(ctx context.Context, req *dto.RequestOTPRequest) (*dto.OTPRequestResponse, error) {
	p, err := phone.Normalize(req.Phone)
	if err != nil {
		return nil, err
	}

	agent, err := u.agentRepo.FindByPhone(u.transactor.DB(ctx), p)
	if err != nil {
		u.log.Warnf("Failed to find agent by phone: %+v", err)
		return nil, persistenceError("failed to find agent", err)
	}
	if agent == nil {
		return nil, apperr.ReferenceNotFound("no agent registered for this phone", req.Phone)
	}
	if !agent.Active() {
		return nil, ErrAgentInactive
	}
	if u.sender == nil {
		return nil, apperr.Upstream("OTP delivery is not configured", nil)
	}

	fresh, err := u.redisClient.SetNX(ctx, throttleKey(p), 1, u.cfg.ResendInterval).Result()
	if err != nil {
		u.log.Warnf("Failed to set OTP throttle: %+v", err)
		return nil, apperr.Upstream("failed to store OTP", err)
	}
	if !fresh {
		return nil, apperr.RateLimit("an OTP was sent recently, try again later")
	}
	if !u.limiter.Allow() {
		u.redisClient.Del(ctx, throttleKey(p))
		return nil, apperr.RateLimit("too many OTP requests, try again shortly")
	}

	code, err := u.codeGen()
	if err != nil {
		u.redisClient.Del(ctx, throttleKey(p))
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), u.hashCost)
	if err != nil {
		u.redisClient.Del(ctx, throttleKey(p))
		u.log.Warnf("Failed to hash OTP: %+v", err)
		return nil, err
	}

	_, err = u.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, otpKey(p))
		pipe.HSet(ctx, otpKey(p), "hash", string(hash), "attempts", 0)
		pipe.Expire(ctx, otpKey(p), u.cfg.TTL)
		return nil
	})
	if err != nil {
		u.redisClient.Del(ctx, throttleKey(p))
		u.log.Warnf("Failed to store OTP in Redis: %+v", err)
		return nil, apperr.Upstream("failed to store OTP", err)
	}

	body := fmt.Sprintf("Your login code is %s. It expires in %d minutes.", code, int(u.cfg.TTL.Minutes()))
	if err := u.sender.Send(ctx, p, body); err != nil {
		u.redisClient.Del(ctx, otpKey(p), throttleKey(p))
		u.log.Warnf("Failed to send OTP to %s: %+v", p, err)
		return nil, apperr.Upstream("failed to deliver OTP", err)
	}

	return &dto.OTPRequestResponse{
		Phone:     p,
		ExpiresAt: u.now().Add(u.cfg.TTL),
	}, nil
}

func (u *authUsecase) VerifyOTP(ctx context.Context, req *dto.VerifyOTPRequest) (*dto.TokenResponse, error) {
	p, err := phone.Normalize(req.Phone)
	if err != nil {
		return nil, err
	}

	hash, attempts, err := u.consumeAttempt(ctx, p)
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidOTP
	}
	if err != nil {
		u.log.Warnf("Failed to read OTP from Redis: %+v", err)
		return nil, apperr.Upstream("failed to read OTP", err)
	}
	if attempts > int64(u.cfg.MaxAttempts) {
		u.redisClient.Del(ctx, otpKey(p))
		return nil, apperr.RateLimit("too many attempts, request a new code")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Code)); err != nil {
		return nil, ErrInvalidOTP
	}
	u.redisClient.Del(ctx, otpKey(p))

	agent, err := u.agentRepo.FindByPhone(u.transactor.DB(ctx), p)
	if err != nil {
		u.log.Warnf("Failed to find agent by phone: %+v", err)
		return nil, persistenceError("failed to find agent", err)
	}
	if agent == nil {
		return nil, ErrAgentNotFound
	}
	if !agent.Active() {
		return nil, ErrAgentInactive
	}

	tokens, err := u.issueTokens(ctx, agent)
	if err != nil {
		return nil, err
	}

	u.notifier.Record(ctx, &agent.ID, entity.AuditActionAgentLogin, entity.JSON{"phone": agent.Phone})
	return tokens, nil
}

func (u *authUsecase) consumeAttempt(ctx context.Context, p string) (string, int64, error) {
	res, err := readAndCountAttemptScript.Run(ctx, u.redisClient, []string{otpKey(p)}).Slice()
	if err != nil {
		return "", 0, err
	}
	if len(res) != 2 {
		return "", 0, fmt.Errorf("unexpected OTP script result %v", res)
	}
	hash, _ := res[0].(string)
	attempts, _ := res[1].(int64)
	return hash, attempts, nil
}

func (u *authUsecase) issueTokens(ctx context.Context, agent *entity.Agent) (*dto.TokenResponse, error) {
	accessToken, accessTokenID, err := u.jwtService.GenerateAccessToken(agent.ID, agent.Phone, agent.Role)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	refreshToken, refreshTokenID, err := u.jwtService.GenerateRefreshToken(agent.ID, agent.Phone, agent.Role)
	if err != nil {
		u.log.Warnf("Failed to generate refresh token: %+v", err)
		return nil, err
	}

	// Store tokens in Redis
	accessKey := fmt.Sprintf("access_token:%s:%s", agent.ID.String(), accessTokenID)
	refreshKey := fmt.Sprintf("refresh_token:%s:%s", agent.ID.String(), refreshTokenID)

	if err := u.redisClient.Set(ctx, accessKey, "valid", u.jwtService.GetAccessExpiry()).Err(); err != nil {
		u.log.Warnf("Failed to store access token in Redis: %+v", err)
		return nil, err
	}

	if err := u.redisClient.Set(ctx, refreshKey, "valid", u.jwtService.GetRefreshExpiry()).Err(); err != nil {
		u.log.Warnf("Failed to store refresh token in Redis: %+v", err)
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(u.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}

func (u *authUsecase) Logout(ctx context.Context, agentID uuid.UUID, accessTokenID, refreshTokenID string) error {
	keys := []string{fmt.Sprintf("access_token:%s:%s", agentID.String(), accessTokenID)}
	if refreshTokenID != "" {
		keys = append(keys, fmt.Sprintf("refresh_token:%s:%s", agentID.String(), refreshTokenID))
	}
	if err := u.redisClient.Del(ctx, keys...).Err(); err != nil {
		u.log.Warnf("Failed to delete tokens: %+v", err)
		return err
	}

	u.notifier.Record(ctx, &agentID, entity.AuditActionAgentLogout, nil)
	return nil
}

func (u *authUsecase) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := u.jwtService.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != jwt.RefreshToken {
		return nil, ErrInvalidToken
	}

	// Check if refresh token exists in Redis
	refreshKey := fmt.Sprintf("refresh_token:%s:%s", claims.AgentID.String(), claims.TokenID)
	exists, err := u.redisClient.Exists(ctx, refreshKey).Result()
	if err != nil {
		u.log.Warnf("Failed to check refresh token in Redis: %+v", err)
		return nil, err
	}
	if exists == 0 {
		return nil, ErrTokenRevoked
	}

	// Role and active flag may have changed since the token was issued.
	agent, err := u.agentRepo.FindByID(u.transactor.DB(ctx), claims.AgentID)
	if err != nil {
		u.log.Warnf("Failed to find agent by ID: %+v", err)
		return nil, persistenceError("failed to find agent", err)
	}
	if agent == nil {
		return nil, ErrAgentNotFound
	}
	if !agent.Active() {
		return nil, ErrAgentInactive
	}

	if err := u.redisClient.Del(ctx, refreshKey).Err(); err != nil {
		u.log.Warnf("Failed to delete old refresh token: %+v", err)
		return nil, err
	}

	return u.issueTokens(ctx, agent)
}

func (u *authUsecase) GetCurrentAgent(ctx context.Context, agentID uuid.UUID) (*dto.AgentResponse, error) {
	agent, err := u.agentRepo.FindByID(u.transactor.DB(ctx), agentID)
	if err != nil {
		u.log.Warnf("Failed to find agent by ID: %+v", err)
		return nil, persistenceError("failed to find agent", err)
	}
	if agent == nil {
		return nil, ErrAgentNotFound
	}
	return converter.AgentToResponse(agent), nil
}

func randomCode() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
