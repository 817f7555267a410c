package service

import (
	"errors"
	"fmt"
	"time"

	"hangoutapp/internal/model"
	"hangoutapp/internal/repository"

	"gorm.io/gorm"
)

// HangoutResult reports what sending a hangout request produced: a pending
// request for a direct connection, or an approval waiting on the named mutual
// friend for a second-degree target.
type HangoutResult struct {
	Request          *model.HangoutRequest       `json:"request,omitempty"`
	Approval         *model.SecondDegreeApproval `json:"approval,omitempty"`
	RequiresApproval bool                        `json:"requires_approval"`
	MutualFriend     string                      `json:"mutual_friend,omitempty"`
}

type HangoutService interface {
	SendHangoutRequest(fromID, toID string, details model.HangoutDetails) (*HangoutResult, error)
	AcceptHangoutRequest(fromID, toID string) error
	DeclineHangoutRequest(fromID, toID string) error
	CancelHangoutRequest(fromID, toID string) error
	GetPendingRequests(uid string) ([]*model.HangoutRequest, error)
	GetSentRequests(uid string) ([]*model.HangoutRequest, error)
	RequestSecondDegreeApproval(fromID, toID, mutualID string, details model.HangoutDetails) (*model.SecondDegreeApproval, error)
	GetApproval(approvalID string) (*model.SecondDegreeApproval, error)
	ApproveSecondDegreeRequest(approvalID, decision string) error
	GetPendingApprovals(mutualID string) ([]*model.SecondDegreeApproval, error)
}

type hangoutService struct {
	hangoutRepo  repository.HangoutRequestRepository
	approvalRepo repository.ApprovalRepository
	userRepo     repository.UserRepository
	graphService GraphService
	notifService NotificationService
	requestTTL   time.Duration
}

func NewHangoutService(
	hangoutRepo repository.HangoutRequestRepository,
	approvalRepo repository.ApprovalRepository,
	userRepo repository.UserRepository,
	graphService GraphService,
	notifService NotificationService,
	requestTTL time.Duration,
) HangoutService {
	return &hangoutService{
		hangoutRepo:  hangoutRepo,
		approvalRepo: approvalRepo,
		userRepo:     userRepo,
		graphService: graphService,
		notifService: notifService,
		requestTTL:   requestTTL,
	}
}

// SendHangoutRequest dispatches on the degree of separation between the two
// users. Direct connections get a pending request immediately; second-degree
// targets get a SecondDegreeApproval addressed to a mutual friend, and no
// hangout request exists until that friend approves. Unreachable targets are
// rejected outright.
func (s *hangoutService) SendHangoutRequest(fromID, toID string, details model.HangoutDetails) (*HangoutResult, error) {
	if fromID == "" || toID == "" || fromID == toID {
		return nil, ErrInvalidParticipants
	}

	sender, err := s.userRepo.FindByID(fromID)
	if err != nil {
		return nil, storeErr(err)
	}

	degree, err := s.graphService.DegreeBetween(fromID, toID)
	if err != nil {
		return nil, err
	}

	switch degree {
	case 0:
		return nil, ErrNotConnected

	case 1:
		if existing, err := s.hangoutRepo.FindByPair(fromID, toID); err == nil && existing.Status == model.HangoutStatusPending {
			return nil, ErrDuplicateRequest
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storeErr(err)
		}

		expiresAt := time.Now().Add(s.requestTTL)
		request := &model.HangoutRequest{
			FromID:    fromID,
			ToID:      toID,
			Idea:      details.Idea,
			EventType: details.EventType,
			Time:      details.Time,
			Place:     details.Place,
			Status:    model.HangoutStatusPending,
			Degree:    1,
			ExpiresAt: &expiresAt,
		}
		if err := s.hangoutRepo.Create(request); err != nil {
			return nil, storeErr(err)
		}

		go func() {
			s.notifService.SendHangoutRequestNotification(toID, fromID, sender.Name, request.ID)
		}()

		return &HangoutResult{Request: request, RequiresApproval: false}, nil

	default:
		broker, err := s.graphService.FindBroker(fromID, toID)
		if err != nil {
			return nil, err
		}
		if broker == "" {
			return nil, ErrNoMutualFriend
		}

		approval, err := s.RequestSecondDegreeApproval(fromID, toID, broker, details)
		if err != nil {
			return nil, err
		}

		return &HangoutResult{
			Approval:         approval,
			RequiresApproval: true,
			MutualFriend:     broker,
		}, nil
	}
}

// AcceptHangoutRequest transitions a pending request to accepted.
func (s *hangoutService) AcceptHangoutRequest(fromID, toID string) error {
	return s.resolveHangoutRequest(fromID, toID, model.HangoutStatusAccepted)
}

// DeclineHangoutRequest transitions a pending request to declined.
func (s *hangoutService) DeclineHangoutRequest(fromID, toID string) error {
	return s.resolveHangoutRequest(fromID, toID, model.HangoutStatusDeclined)
}

func (s *hangoutService) resolveHangoutRequest(fromID, toID, status string) error {
	if err := s.hangoutRepo.UpdateStatusIfPending(fromID, toID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotPending
		}
		return storeErr(err)
	}

	go func() {
		receiver, _ := s.userRepo.FindByID(toID)
		if receiver != nil {
			s.notifService.SendHangoutDecisionNotification(fromID, toID, receiver.Name, status)
		}
	}()

	return nil
}

// CancelHangoutRequest is the sender deleting their own pending request.
func (s *hangoutService) CancelHangoutRequest(fromID, toID string) error {
	if err := s.hangoutRepo.DeleteIfPending(fromID, toID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotPending
		}
		return storeErr(err)
	}
	return nil
}

// GetPendingRequests returns pending incoming requests for uid. Requests past
// their expiry are flipped to expired on the way through and never shown.
func (s *hangoutService) GetPendingRequests(uid string) ([]*model.HangoutRequest, error) {
	requests, err := s.hangoutRepo.FindPendingByReceiver(uid)
	if err != nil {
		return nil, storeErr(err)
	}

	now := time.Now()
	live := requests[:0]
	for _, request := range requests {
		if request.IsExpired(now) {
			// Best effort; a failed flip just means the sweep happens on the
			// next read.
			s.hangoutRepo.ExpireIfPending(request.FromID, request.ToID)
			continue
		}
		live = append(live, request)
	}

	return live, nil
}

// GetSentRequests returns requests uid has sent, any status.
func (s *hangoutService) GetSentRequests(uid string) ([]*model.HangoutRequest, error) {
	requests, err := s.hangoutRepo.FindBySender(uid)
	if err != nil {
		return nil, storeErr(err)
	}
	return requests, nil
}

// RequestSecondDegreeApproval records a pending approval addressed to the
// mutual friend, holding the hangout details until they decide.
func (s *hangoutService) RequestSecondDegreeApproval(fromID, toID, mutualID string, details model.HangoutDetails) (*model.SecondDegreeApproval, error) {
	if fromID == "" || toID == "" || mutualID == "" || fromID == toID {
		return nil, ErrInvalidParticipants
	}

	if existing, err := s.approvalRepo.FindByPair(fromID, toID); err == nil && existing.Status == model.ApprovalStatusPending {
		return nil, ErrDuplicateRequest
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr(err)
	}

	approval := &model.SecondDegreeApproval{
		FromID:    fromID,
		ToID:      toID,
		MutualID:  mutualID,
		Idea:      details.Idea,
		EventType: details.EventType,
		Time:      details.Time,
		Place:     details.Place,
		Status:    model.ApprovalStatusPending,
	}
	if err := s.approvalRepo.Create(approval); err != nil {
		return nil, storeErr(err)
	}

	go func() {
		sender, _ := s.userRepo.FindByID(fromID)
		if sender != nil {
			s.notifService.SendApprovalRequestedNotification(mutualID, fromID, sender.Name, approval.ID)
		}
	}()

	return approval, nil
}

// GetApproval loads a single approval; callers use it to check that the
// acting user is the addressed mutual friend before deciding.
func (s *hangoutService) GetApproval(approvalID string) (*model.SecondDegreeApproval, error) {
	approval, err := s.approvalRepo.FindByID(approvalID)
	if err != nil {
		return nil, storeErr(err)
	}
	return approval, nil
}

// ApproveSecondDegreeRequest settles a pending approval. An approved decision
// spawns the degree-2 hangout request in the same transaction; this is the
// only path that ever creates one. A decision against an already-settled
// approval changes nothing and spawns nothing.
func (s *hangoutService) ApproveSecondDegreeRequest(approvalID, decision string) error {
	if decision != model.ApprovalStatusApproved && decision != model.ApprovalStatusDeclined {
		return fmt.Errorf("invalid decision %q", decision)
	}

	approval, err := s.approvalRepo.FindByID(approvalID)
	if err != nil {
		return storeErr(err)
	}

	var spawn *model.HangoutRequest
	if decision == model.ApprovalStatusApproved {
		now := time.Now()
		expiresAt := now.Add(s.requestTTL)
		details := approval.Details()
		spawn = &model.HangoutRequest{
			FromID:     approval.FromID,
			ToID:       approval.ToID,
			Idea:       details.Idea,
			EventType:  details.EventType,
			Time:       details.Time,
			Place:      details.Place,
			Status:     model.HangoutStatusPending,
			Degree:     2,
			ExpiresAt:  &expiresAt,
			ApprovedAt: &now,
		}
	}

	if err := s.approvalRepo.Decide(approvalID, decision, spawn); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotPending
		}
		return storeErr(err)
	}

	go func() {
		mutual, _ := s.userRepo.FindByID(approval.MutualID)
		if mutual != nil {
			s.notifService.SendApprovalDecidedNotification(approval.FromID, approval.MutualID, mutual.Name, decision)
		}
		if spawn != nil {
			sender, _ := s.userRepo.FindByID(approval.FromID)
			if sender != nil {
				s.notifService.SendHangoutRequestNotification(approval.ToID, approval.FromID, sender.Name, spawn.ID)
			}
		}
	}()

	return nil
}

// GetPendingApprovals returns approvals waiting on uid as the mutual friend.
func (s *hangoutService) GetPendingApprovals(mutualID string) ([]*model.SecondDegreeApproval, error) {
	approvals, err := s.approvalRepo.FindPendingByMutual(mutualID)
	if err != nil {
		return nil, storeErr(err)
	}
	return approvals, nil
}
