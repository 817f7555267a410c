package service

import (
	"sync"
	"time"

	"hangoutapp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the store's contract closely enough
// for the services: canonical pair keys, gorm.ErrRecordNotFound on misses, and
// conditional updates that fail when the row is not pending. All of them are
// mutex-guarded because the services fan out goroutines.

type fakeConnectionRepo struct {
	mu    sync.Mutex
	pairs map[string]*model.Connection
	err   error
}

func newFakeConnectionRepo() *fakeConnectionRepo {
	return &fakeConnectionRepo{pairs: make(map[string]*model.Connection)}
}

func (f *fakeConnectionRepo) connect(a, b string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conn := model.NewConnection(a, b)
	f.pairs[conn.PairID] = conn
}

func (f *fakeConnectionRepo) Create(connection *model.Connection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.pairs[connection.PairID]; ok {
		return gorm.ErrDuplicatedKey
	}
	f.pairs[connection.PairID] = connection
	return nil
}

func (f *fakeConnectionRepo) FindByPair(a, b string) (*model.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	conn, ok := f.pairs[model.ConnectionPairID(a, b)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return conn, nil
}

func (f *fakeConnectionRepo) ConnectionsOf(uid string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var peers []string
	for _, conn := range f.pairs {
		if other := conn.Other(uid); other != "" {
			peers = append(peers, other)
		}
	}
	return peers, nil
}

func (f *fakeConnectionRepo) FindAll() ([]*model.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	all := make([]*model.Connection, 0, len(f.pairs))
	for _, conn := range f.pairs {
		all = append(all, conn)
	}
	return all, nil
}

func (f *fakeConnectionRepo) DeleteByPair(a, b string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	pairID := model.ConnectionPairID(a, b)
	if _, ok := f.pairs[pairID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.pairs, pairID)
	return nil
}

type fakeConnectionRequestRepo struct {
	mu    sync.Mutex
	reqs  map[string]*model.ConnectionRequest
	conns *fakeConnectionRepo
}

func newFakeConnectionRequestRepo(conns *fakeConnectionRepo) *fakeConnectionRequestRepo {
	return &fakeConnectionRequestRepo{
		reqs:  make(map[string]*model.ConnectionRequest),
		conns: conns,
	}
}

func requestKey(fromID, toID string) string {
	return fromID + "|" + toID
}

func (f *fakeConnectionRequestRepo) Create(request *model.ConnectionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := requestKey(request.FromID, request.ToID)
	if _, ok := f.reqs[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	f.reqs[key] = request
	return nil
}

func (f *fakeConnectionRequestRepo) FindByPair(fromID, toID string) (*model.ConnectionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.reqs[requestKey(fromID, toID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return request, nil
}

func (f *fakeConnectionRequestRepo) FindPendingByReceiver(toID string) ([]*model.ConnectionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pending []*model.ConnectionRequest
	for _, request := range f.reqs {
		if request.ToID == toID && request.Status == model.ConnectionRequestStatusPending {
			pending = append(pending, request)
		}
	}
	return pending, nil
}

func (f *fakeConnectionRequestRepo) FindBySender(fromID string) ([]*model.ConnectionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sent []*model.ConnectionRequest
	for _, request := range f.reqs {
		if request.FromID == fromID {
			sent = append(sent, request)
		}
	}
	return sent, nil
}

func (f *fakeConnectionRequestRepo) Accept(fromID, toID string) (*model.Connection, error) {
	f.mu.Lock()
	request, ok := f.reqs[requestKey(fromID, toID)]
	if !ok || request.Status != model.ConnectionRequestStatusPending {
		f.mu.Unlock()
		return nil, gorm.ErrRecordNotFound
	}
	request.Status = model.ConnectionRequestStatusAccepted
	f.mu.Unlock()

	connection := model.NewConnection(fromID, toID)
	if err := f.conns.Create(connection); err != nil {
		return nil, err
	}
	return connection, nil
}

func (f *fakeConnectionRequestRepo) DeleteIfPending(fromID, toID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := requestKey(fromID, toID)
	request, ok := f.reqs[key]
	if !ok || request.Status != model.ConnectionRequestStatusPending {
		return gorm.ErrRecordNotFound
	}
	delete(f.reqs, key)
	return nil
}

type fakeHangoutRepo struct {
	mu   sync.Mutex
	reqs map[string]*model.HangoutRequest
}

func newFakeHangoutRepo() *fakeHangoutRepo {
	return &fakeHangoutRepo{reqs: make(map[string]*model.HangoutRequest)}
}

func (f *fakeHangoutRepo) Create(request *model.HangoutRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := requestKey(request.FromID, request.ToID)
	if existing, ok := f.reqs[key]; ok && existing.Status == model.HangoutStatusPending {
		return gorm.ErrDuplicatedKey
	}
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	f.reqs[key] = request
	return nil
}

func (f *fakeHangoutRepo) FindByPair(fromID, toID string) (*model.HangoutRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.reqs[requestKey(fromID, toID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return request, nil
}

func (f *fakeHangoutRepo) FindPendingByReceiver(toID string) ([]*model.HangoutRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pending []*model.HangoutRequest
	for _, request := range f.reqs {
		if request.ToID == toID && request.Status == model.HangoutStatusPending {
			pending = append(pending, request)
		}
	}
	return pending, nil
}

func (f *fakeHangoutRepo) FindBySender(fromID string) ([]*model.HangoutRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sent []*model.HangoutRequest
	for _, request := range f.reqs {
		if request.FromID == fromID {
			sent = append(sent, request)
		}
	}
	return sent, nil
}

func (f *fakeHangoutRepo) UpdateStatusIfPending(fromID, toID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.reqs[requestKey(fromID, toID)]
	if !ok || request.Status != model.HangoutStatusPending {
		return gorm.ErrRecordNotFound
	}
	request.Status = status
	return nil
}

func (f *fakeHangoutRepo) DeleteIfPending(fromID, toID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := requestKey(fromID, toID)
	request, ok := f.reqs[key]
	if !ok || request.Status != model.HangoutStatusPending {
		return gorm.ErrRecordNotFound
	}
	delete(f.reqs, key)
	return nil
}

func (f *fakeHangoutRepo) ExpireIfPending(fromID, toID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.reqs[requestKey(fromID, toID)]
	if !ok || request.Status != model.HangoutStatusPending {
		return gorm.ErrRecordNotFound
	}
	request.Status = model.HangoutStatusExpired
	return nil
}

type fakeApprovalRepo struct {
	mu        sync.Mutex
	approvals map[string]*model.SecondDegreeApproval
	hangouts  *fakeHangoutRepo
}

func newFakeApprovalRepo(hangouts *fakeHangoutRepo) *fakeApprovalRepo {
	return &fakeApprovalRepo{
		approvals: make(map[string]*model.SecondDegreeApproval),
		hangouts:  hangouts,
	}
}

func (f *fakeApprovalRepo) Create(approval *model.SecondDegreeApproval) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if approval.ID == "" {
		approval.ID = uuid.New().String()
	}
	for id, existing := range f.approvals {
		if existing.FromID != approval.FromID || existing.ToID != approval.ToID {
			continue
		}
		if existing.Status == model.ApprovalStatusPending {
			return gorm.ErrDuplicatedKey
		}
		delete(f.approvals, id)
	}
	f.approvals[approval.ID] = approval
	return nil
}

func (f *fakeApprovalRepo) FindByID(id string) (*model.SecondDegreeApproval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	approval, ok := f.approvals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return approval, nil
}

func (f *fakeApprovalRepo) FindByPair(fromID, toID string) (*model.SecondDegreeApproval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, approval := range f.approvals {
		if approval.FromID == fromID && approval.ToID == toID {
			return approval, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeApprovalRepo) FindPendingByMutual(mutualID string) ([]*model.SecondDegreeApproval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pending []*model.SecondDegreeApproval
	for _, approval := range f.approvals {
		if approval.MutualID == mutualID && approval.Status == model.ApprovalStatusPending {
			pending = append(pending, approval)
		}
	}
	return pending, nil
}

func (f *fakeApprovalRepo) FindBySender(fromID string) ([]*model.SecondDegreeApproval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sent []*model.SecondDegreeApproval
	for _, approval := range f.approvals {
		if approval.FromID == fromID {
			sent = append(sent, approval)
		}
	}
	return sent, nil
}

func (f *fakeApprovalRepo) Decide(id, decision string, spawn *model.HangoutRequest) error {
	f.mu.Lock()
	approval, ok := f.approvals[id]
	if !ok || approval.Status != model.ApprovalStatusPending {
		f.mu.Unlock()
		return gorm.ErrRecordNotFound
	}
	approval.Status = decision
	f.mu.Unlock()

	if spawn != nil {
		return f.hangouts.Create(spawn)
	}
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo(ids ...string) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[string]*model.User)}
	for _, id := range ids {
		f.users[id] = &model.User{ID: id, Name: "user-" + id}
	}
	return f
}

func (f *fakeUserRepo) Create(user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByID(id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) FindByIDs(ids []string) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []model.User
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			users = append(users, *user)
		}
	}
	return users, nil
}

func (f *fakeUserRepo) FindByPhone(phone string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Phone == phone {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) SearchUsers(keyword string, limit, offset int) ([]model.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) FindAll(limit, offset int) ([]model.User, int64, error) {
	return nil, 0, nil
}

func (f *fakeUserRepo) Update(user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) UpdateOTP(phone string, otpHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Phone == phone {
			user.OTPHash = &otpHash
			user.OTPExpiresAt = &expiresAt
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) ClearOTP(userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[userID]; ok {
		user.OTPHash = nil
		user.OTPExpiresAt = nil
	}
	return nil
}

func (f *fakeUserRepo) UpdateLastLogin(userID string) error {
	return nil
}

// fakeNotificationService records delivery calls so tests can run the async
// notify paths without a broker or a database.
type fakeNotificationService struct {
	mu          sync.Mutex
	calls       []string
	lastOTPCode string
}

func newFakeNotificationService() *fakeNotificationService {
	return &fakeNotificationService{}
}

func (f *fakeNotificationService) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeNotificationService) SendConnectionRequestNotification(receiverID, senderID, senderName, requestID string) error {
	return f.record("connection_request:" + receiverID)
}

func (f *fakeNotificationService) SendConnectionAcceptedNotification(receiverID, senderID, senderName string) error {
	return f.record("connection_accepted:" + receiverID)
}

func (f *fakeNotificationService) SendHangoutRequestNotification(receiverID, senderID, senderName, requestID string) error {
	return f.record("hangout_request:" + receiverID)
}

func (f *fakeNotificationService) SendHangoutDecisionNotification(receiverID, senderID, senderName, status string) error {
	return f.record("hangout_decision:" + receiverID)
}

func (f *fakeNotificationService) SendApprovalRequestedNotification(mutualID, senderID, senderName, approvalID string) error {
	return f.record("approval_requested:" + mutualID)
}

func (f *fakeNotificationService) SendApprovalDecidedNotification(receiverID, mutualID, mutualName, decision string) error {
	return f.record("approval_decided:" + receiverID)
}

func (f *fakeNotificationService) SendOTPIssuedNotification(userID, phone, code string) error {
	f.mu.Lock()
	f.lastOTPCode = code
	f.mu.Unlock()
	return f.record("otp_issued:" + userID)
}

func (f *fakeNotificationService) issuedOTPCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastOTPCode
}

func (f *fakeNotificationService) GetNotificationsByUserID(userID string, limit, offset int) ([]*model.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationService) GetUnreadNotifications(userID string) ([]*model.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationService) GetUnreadCount(userID string) (int64, error) {
	return 0, nil
}

func (f *fakeNotificationService) MarkAsRead(notificationID, userID string) error {
	return nil
}

func (f *fakeNotificationService) MarkAllAsRead(userID string) error {
	return nil
}

func (f *fakeNotificationService) DeleteNotification(notificationID, userID string) error {
	return nil
}

func (f *fakeNotificationService) SetWSHub(hub interface {
	BroadcastToUser(string, map[string]interface{})
}) {
}
