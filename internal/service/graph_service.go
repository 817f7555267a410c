package service

import (
	"sort"
	"sync"

	"hangoutapp/internal/model"
	"hangoutapp/internal/repository"
)

// Node request status values surfaced to the graph view.
const (
	RequestStatusNone            = "none"
	RequestStatusConnected       = "connected"
	RequestStatusPendingApproval = "pendingApproval"
)

// GraphNode is one user in the visualization graph, annotated with its degree
// of separation from the viewer and the viewer's outstanding request state.
type GraphNode struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Bio           string `json:"bio"`
	Degree        int    `json:"degree"` // 0 self, 1 direct, 2 via broker
	RequestSent   bool   `json:"request_sent"`
	RequestStatus string `json:"request_status"`
}

// GraphEdge is a stored connection between two graph nodes.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// ConnectionGraph is the assembled neighborhood for one viewer.
type ConnectionGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

type GraphService interface {
	FirstDegree(uid string) ([]string, error)
	SecondDegree(uid string) ([]string, error)
	DegreeBetween(a, b string) (int, error)
	MutualFriends(a, b string) ([]string, error)
	FindBroker(a, b string) (string, error)
	BuildConnectionGraph(uid string) (*ConnectionGraph, error)
}

type graphService struct {
	connRepo     repository.ConnectionRepository
	userRepo     repository.UserRepository
	connReqRepo  repository.ConnectionRequestRepository
	hangoutRepo  repository.HangoutRequestRepository
	approvalRepo repository.ApprovalRepository
}

func NewGraphService(
	connRepo repository.ConnectionRepository,
	userRepo repository.UserRepository,
	connReqRepo repository.ConnectionRequestRepository,
	hangoutRepo repository.HangoutRequestRepository,
	approvalRepo repository.ApprovalRepository,
) GraphService {
	return &graphService{
		connRepo:     connRepo,
		userRepo:     userRepo,
		connReqRepo:  connReqRepo,
		hangoutRepo:  hangoutRepo,
		approvalRepo: approvalRepo,
	}
}

// FirstDegree returns the viewer's direct connections, sorted by id.
func (s *graphService) FirstDegree(uid string) ([]string, error) {
	peers, err := s.connRepo.ConnectionsOf(uid)
	if err != nil {
		return nil, storeErr(err)
	}
	sort.Strings(peers)
	return peers, nil
}

// SecondDegree returns users exactly two hops away: connections of the
// viewer's connections, minus the viewer and anyone already first-degree.
func (s *graphService) SecondDegree(uid string) ([]string, error) {
	first, err := s.FirstDegree(uid)
	if err != nil {
		return nil, err
	}
	return s.secondDegreeOf(uid, first)
}

// secondDegreeOf fans out one lookup per first-degree peer, concurrently so
// latency is bounded by the slowest single lookup.
func (s *graphService) secondDegreeOf(uid string, first []string) ([]string, error) {
	firstSet := make(map[string]bool, len(first))
	for _, f := range first {
		firstSet[f] = true
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		fanErr   error
		foundSet = make(map[string]bool)
	)

	for _, friend := range first {
		wg.Add(1)
		go func(friend string) {
			defer wg.Done()
			peers, err := s.connRepo.ConnectionsOf(friend)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if fanErr == nil {
					fanErr = err
				}
				return
			}
			for _, peer := range peers {
				if peer != uid && !firstSet[peer] {
					foundSet[peer] = true
				}
			}
		}(friend)
	}
	wg.Wait()

	if fanErr != nil {
		return nil, storeErr(fanErr)
	}

	second := make([]string, 0, len(foundSet))
	for peer := range foundSet {
		second = append(second, peer)
	}
	sort.Strings(second)
	return second, nil
}

// DegreeBetween returns the shortest degree of separation within two hops:
// 1 direct, 2 via a broker, 0 if no such path exists. First degree is checked
// before fanning out so degree stays minimal.
func (s *graphService) DegreeBetween(a, b string) (int, error) {
	first, err := s.FirstDegree(a)
	if err != nil {
		return 0, err
	}
	for _, peer := range first {
		if peer == b {
			return 1, nil
		}
	}

	second, err := s.secondDegreeOf(a, first)
	if err != nil {
		return 0, err
	}
	for _, peer := range second {
		if peer == b {
			return 2, nil
		}
	}

	return 0, nil
}

// MutualFriends returns all common first-degree connections of two users,
// sorted by id.
func (s *graphService) MutualFriends(a, b string) ([]string, error) {
	aPeers, err := s.FirstDegree(a)
	if err != nil {
		return nil, err
	}
	bPeers, err := s.FirstDegree(b)
	if err != nil {
		return nil, err
	}

	bSet := make(map[string]bool, len(bPeers))
	for _, peer := range bPeers {
		bSet[peer] = true
	}

	var mutual []string
	for _, peer := range aPeers {
		if bSet[peer] {
			mutual = append(mutual, peer)
		}
	}
	return mutual, nil
}

// FindBroker picks the mutual friend that gates a second-degree request.
// Candidates are sorted by id, so the broker with the lowest id wins and the
// choice never depends on store iteration order. Returns "" when the users
// share no mutual friend.
func (s *graphService) FindBroker(a, b string) (string, error) {
	mutual, err := s.MutualFriends(a, b)
	if err != nil {
		return "", err
	}
	if len(mutual) == 0 {
		return "", nil
	}
	return mutual[0], nil
}

// BuildConnectionGraph assembles the viewer's two-hop neighborhood: every
// reachable user as an annotated node plus every stored edge among them. Any
// store failure is returned to the caller; an empty graph only ever means the
// viewer genuinely has no connections.
func (s *graphService) BuildConnectionGraph(uid string) (*ConnectionGraph, error) {
	first, err := s.FirstDegree(uid)
	if err != nil {
		return nil, err
	}
	second, err := s.secondDegreeOf(uid, first)
	if err != nil {
		return nil, err
	}

	firstSet := make(map[string]bool, len(first))
	for _, peer := range first {
		firstSet[peer] = true
	}
	secondSet := make(map[string]bool, len(second))
	for _, peer := range second {
		secondSet[peer] = true
	}

	allUIDs := make([]string, 0, 1+len(first)+len(second))
	allUIDs = append(allUIDs, uid)
	allUIDs = append(allUIDs, first...)
	allUIDs = append(allUIDs, second...)

	// The three sent-request lookups populate disjoint annotations, so they
	// run concurrently and join before nodes are built.
	var (
		wg            sync.WaitGroup
		mu            sync.Mutex
		lookupErr     error
		sentRequests  = make(map[string]bool)
		hangoutStatus = make(map[string]string)
		approvals     = make(map[string]string)
	)

	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if lookupErr == nil {
			lookupErr = err
		}
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		requests, err := s.connReqRepo.FindBySender(uid)
		if err != nil {
			fail(err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		for _, req := range requests {
			sentRequests[req.ToID] = true
		}
	}()
	go func() {
		defer wg.Done()
		requests, err := s.hangoutRepo.FindBySender(uid)
		if err != nil {
			fail(err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		for _, req := range requests {
			hangoutStatus[req.ToID] = req.Status
		}
	}()
	go func() {
		defer wg.Done()
		sent, err := s.approvalRepo.FindBySender(uid)
		if err != nil {
			fail(err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		for _, approval := range sent {
			approvals[approval.ToID] = approval.Status
		}
	}()
	wg.Wait()

	if lookupErr != nil {
		return nil, storeErr(lookupErr)
	}

	users, err := s.userRepo.FindByIDs(allUIDs)
	if err != nil {
		return nil, storeErr(err)
	}
	usersByID := make(map[string]model.User, len(users))
	for _, user := range users {
		usersByID[user.ID] = user
	}

	nodes := make([]GraphNode, 0, len(allUIDs))
	for _, userID := range allUIDs {
		node := GraphNode{
			ID:            userID,
			Name:          "Unknown",
			RequestSent:   sentRequests[userID],
			RequestStatus: RequestStatusNone,
		}
		if user, ok := usersByID[userID]; ok {
			node.Name = user.Name
			node.Bio = user.Bio
		}

		switch {
		case firstSet[userID]:
			node.Degree = 1
			node.RequestStatus = RequestStatusConnected
		case secondSet[userID]:
			node.Degree = 2
		}

		if node.RequestStatus == RequestStatusNone {
			if status, ok := hangoutStatus[userID]; ok {
				node.RequestStatus = status
			} else if status, ok := approvals[userID]; ok {
				if status == model.ApprovalStatusPending {
					node.RequestStatus = RequestStatusPendingApproval
				} else {
					node.RequestStatus = status
				}
			}
		}

		nodes = append(nodes, node)
	}

	allSet := make(map[string]bool, len(allUIDs))
	for _, id := range allUIDs {
		allSet[id] = true
	}

	connections, err := s.connRepo.FindAll()
	if err != nil {
		return nil, storeErr(err)
	}

	edges := make([]GraphEdge, 0, len(connections))
	for _, conn := range connections {
		if allSet[conn.UserA] && allSet[conn.UserB] {
			edges = append(edges, GraphEdge{Source: conn.UserA, Target: conn.UserB})
		}
	}

	return &ConnectionGraph{Nodes: nodes, Edges: edges}, nil
}
