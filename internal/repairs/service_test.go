package repairs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	repairs map[int64]*Repair
	nextID  int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{repairs: make(map[int64]*Repair), nextID: 1}
}

func (m *mockRepository) List(ctx context.Context, status Status) ([]Repair, error) {
	var out []Repair
	for _, rep := range m.repairs {
		if status == "" || rep.Status == status {
			out = append(out, *rep)
		}
	}
	return out, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Repair, error) {
	rep, ok := m.repairs[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *rep
	return &copied, nil
}

func (m *mockRepository) Create(ctx context.Context, rep *Repair) (*Repair, error) {
	rep.ID = m.nextID
	m.nextID++
	rep.Status = StatusReceived
	m.repairs[rep.ID] = rep
	return rep, nil
}

func (m *mockRepository) Transition(ctx context.Context, id int64, to Status, technicianID *int64) (*Repair, error) {
	rep, ok := m.repairs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !CanTransition(rep.Status, to) {
		return nil, ErrBadTransition
	}
	rep.Status = to
	if technicianID != nil {
		rep.TechnicianID = technicianID
	}
	copied := *rep
	return &copied, nil
}

func TestCreateRequiresClientAndEquipment(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Create(context.Background(), Repair{Equipment: "amplifier"})
	assert.Error(t, err)

	_, err = svc.Create(context.Background(), Repair{ClientID: 1, Equipment: "   "})
	assert.Error(t, err)

	rep, err := svc.Create(context.Background(), Repair{ClientID: 1, Equipment: " amplifier ", Issue: "no sound"})
	require.NoError(t, err)
	assert.Equal(t, "amplifier", rep.Equipment)
	assert.Equal(t, StatusReceived, rep.Status)
}

func TestTransitionWorkflow(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	rep, err := svc.Create(context.Background(), Repair{ClientID: 1, Equipment: "mixer", Issue: "channel 3 dead"})
	require.NoError(t, err)

	techID := int64(7)
	rep, err = svc.Transition(context.Background(), rep.ID, StatusInProgress, &techID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, rep.Status)
	require.NotNil(t, rep.TechnicianID)
	assert.Equal(t, techID, *rep.TechnicianID)

	// Skipping straight to delivered is not allowed.
	_, err = svc.Transition(context.Background(), rep.ID, StatusDelivered, nil)
	assert.ErrorIs(t, err, ErrBadTransition)

	rep, err = svc.Transition(context.Background(), rep.ID, StatusCompleted, nil)
	require.NoError(t, err)
	rep, err = svc.Transition(context.Background(), rep.ID, StatusDelivered, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, rep.Status)
}

func TestTransitionUnknownStatus(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.Transition(context.Background(), 1, Status("lost"), nil)
	assert.ErrorIs(t, err, ErrBadTransition)
}

func TestListRejectsUnknownFilter(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.List(context.Background(), Status("bogus"))
	assert.Error(t, err)
}
