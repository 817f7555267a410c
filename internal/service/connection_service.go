package service

import (
	"errors"

	"hangoutapp/internal/model"
	"hangoutapp/internal/repository"

	"gorm.io/gorm"
)

type ConnectionService interface {
	SendConnectionRequest(fromID, toID string) (*model.ConnectionRequest, error)
	AcceptConnectionRequest(fromID, toID string) (*model.Connection, error)
	RejectConnectionRequest(fromID, toID string) error
	UnsendConnectionRequest(fromID, toID string) error
	GetIncomingRequests(uid string) ([]*model.ConnectionRequest, error)
	GetSentRequests(uid string) ([]*model.ConnectionRequest, error)
	GetConnections(uid string) ([]model.User, error)
	RemoveConnection(uid, otherID string) error
}

type connectionService struct {
	connRepo     repository.ConnectionRepository
	connReqRepo  repository.ConnectionRequestRepository
	userRepo     repository.UserRepository
	notifService NotificationService
}

func NewConnectionService(
	connRepo repository.ConnectionRepository,
	connReqRepo repository.ConnectionRequestRepository,
	userRepo repository.UserRepository,
	notifService NotificationService,
) ConnectionService {
	return &connectionService{
		connRepo:     connRepo,
		connReqRepo:  connReqRepo,
		userRepo:     userRepo,
		notifService: notifService,
	}
}

// SendConnectionRequest creates a pending directed request. Sending to a user
// who is already connected, or re-sending while a request is outstanding, is
// rejected rather than duplicated.
func (s *connectionService) SendConnectionRequest(fromID, toID string) (*model.ConnectionRequest, error) {
	if fromID == "" || toID == "" || fromID == toID {
		return nil, ErrInvalidParticipants
	}

	sender, err := s.userRepo.FindByID(fromID)
	if err != nil {
		return nil, storeErr(err)
	}
	if _, err := s.userRepo.FindByID(toID); err != nil {
		return nil, storeErr(err)
	}

	if _, err := s.connRepo.FindByPair(fromID, toID); err == nil {
		return nil, ErrDuplicateRequest
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr(err)
	}

	if existing, err := s.connReqRepo.FindByPair(fromID, toID); err == nil && existing != nil {
		return nil, ErrDuplicateRequest
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr(err)
	}

	request := &model.ConnectionRequest{
		FromID: fromID,
		ToID:   toID,
		Status: model.ConnectionRequestStatusPending,
	}
	if err := s.connReqRepo.Create(request); err != nil {
		return nil, storeErr(err)
	}

	// Notify receiver (async, non-blocking)
	go func() {
		s.notifService.SendConnectionRequestNotification(toID, fromID, sender.Name, request.ID)
	}()

	return s.connReqRepo.FindByPair(fromID, toID)
}

// AcceptConnectionRequest flips the pending request to accepted and creates
// the connection edge; both writes happen in one transaction, and the request
// row is kept as history.
func (s *connectionService) AcceptConnectionRequest(fromID, toID string) (*model.Connection, error) {
	connection, err := s.connReqRepo.Accept(fromID, toID)
	if err != nil {
		return nil, storeErr(err)
	}

	// Notify the original sender (async)
	go func() {
		receiver, _ := s.userRepo.FindByID(toID)
		if receiver != nil {
			s.notifService.SendConnectionAcceptedNotification(fromID, toID, receiver.Name)
		}
	}()

	return connection, nil
}

// RejectConnectionRequest is the receiver deleting a pending request.
func (s *connectionService) RejectConnectionRequest(fromID, toID string) error {
	if err := s.connReqRepo.DeleteIfPending(fromID, toID); err != nil {
		return storeErr(err)
	}
	return nil
}

// UnsendConnectionRequest is the sender withdrawing a pending request.
func (s *connectionService) UnsendConnectionRequest(fromID, toID string) error {
	if err := s.connReqRepo.DeleteIfPending(fromID, toID); err != nil {
		return storeErr(err)
	}
	return nil
}

// GetIncomingRequests returns pending requests addressed to uid.
func (s *connectionService) GetIncomingRequests(uid string) ([]*model.ConnectionRequest, error) {
	requests, err := s.connReqRepo.FindPendingByReceiver(uid)
	if err != nil {
		return nil, storeErr(err)
	}
	return requests, nil
}

// GetSentRequests returns requests uid has sent, any status.
func (s *connectionService) GetSentRequests(uid string) ([]*model.ConnectionRequest, error) {
	requests, err := s.connReqRepo.FindBySender(uid)
	if err != nil {
		return nil, storeErr(err)
	}
	return requests, nil
}

// GetConnections returns the user records of uid's direct connections.
func (s *connectionService) GetConnections(uid string) ([]model.User, error) {
	peers, err := s.connRepo.ConnectionsOf(uid)
	if err != nil {
		return nil, storeErr(err)
	}
	users, err := s.userRepo.FindByIDs(peers)
	if err != nil {
		return nil, storeErr(err)
	}
	return users, nil
}

// RemoveConnection deletes the edge between uid and otherID symmetrically.
func (s *connectionService) RemoveConnection(uid, otherID string) error {
	if uid == "" || otherID == "" || uid == otherID {
		return ErrInvalidParticipants
	}
	if err := s.connRepo.DeleteByPair(uid, otherID); err != nil {
		return storeErr(err)
	}
	return nil
}
