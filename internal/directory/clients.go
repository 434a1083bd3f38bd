package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/deposily/deposily/internal/apperrors"
	"github.com/deposily/deposily/internal/domain"
	"github.com/deposily/deposily/internal/infra/sqlstore"
	"github.com/deposily/deposily/internal/logger"
)

const duplicateReferenceMsg = "Client reference already exists for this user."

// CreateClientInput is the body of a create-client request.
type CreateClientInput struct {
	Name               string `json:"name" validate:"required,min=2,max=255"`
	ClientReference    string `json:"clientReference" validate:"max=100"`
	ExpectedPaymentDay *int   `json:"expectedPaymentDay" validate:"omitnil,oneof=1 15 25 30"`
	AutoGenerateRef    bool   `json:"autoGenerateRef"`
}

// UpdateClientInput is the body of an update-client request. Absent fields
// are left unchanged.
type UpdateClientInput struct {
	Name               *string     `json:"name" validate:"omitnil,min=2,max=255"`
	ClientReference    *string     `json:"clientReference" validate:"omitnil,min=1,max=100"`
	ExpectedPaymentDay OptionalInt `json:"expectedPaymentDay"`
}

// OptionalInt distinguishes an absent JSON field from an explicit null.
type OptionalInt struct {
	Set   bool
	Value *int
}

func (o *OptionalInt) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("expectedPaymentDay must be a number or null")
	}
	o.Value = &v
	return nil
}

// OptionalString distinguishes an absent JSON field from an explicit null.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("value must be a string or null")
	}
	o.Value = &v
	return nil
}

// ClientWithStatus is a client and whether it has paid this month.
type ClientWithStatus struct {
	domain.Client
	HasPaidThisMonth bool
}

// ClientWithTransactions is a client and the transactions matching its reference.
type ClientWithTransactions struct {
	domain.Client
	Transactions []domain.Transaction
}

// CreateClient adds a client for userID.
func (s *Service) CreateClient(ctx context.Context, userID string, in CreateClientInput) (*domain.Client, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.ClientReference = strings.TrimSpace(in.ClientReference)
	if in.AutoGenerateRef {
		in.ClientReference = ""
	}

	if err := s.validateStruct(in); err != nil {
		return nil, err
	}

	ref := in.ClientReference
	if in.AutoGenerateRef {
		ref = GenerateReference(in.Name, s.intn)
	}
	if ref == "" {
		return nil, apperrors.Validation("Invalid input").
			WithDetail("clientReference", "Client reference is required when auto-generate is off.")
	}

	exists, err := s.clients.ReferenceExists(ctx, userID, ref)
	if err != nil {
		return nil, apperrors.Internal("Failed to add client", err)
	}
	if exists {
		return nil, apperrors.Conflict(duplicateReferenceMsg)
	}

	c := &domain.Client{
		UserID:          userID,
		Name:            in.Name,
		ClientReference: ref,
	}
	c.SetPaymentDay(in.ExpectedPaymentDay)

	if err := s.clients.Create(ctx, c); err != nil {
		if errors.Is(err, sqlstore.ErrDuplicateReference) {
			return nil, apperrors.Conflict(duplicateReferenceMsg)
		}
		return nil, apperrors.Internal("Failed to add client", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("client_id", c.ID).
		Str("client_reference", c.ClientReference).
		Msg("Client created")
	return c, nil
}

// UpdateClient applies the fields present in in.
func (s *Service) UpdateClient(ctx context.Context, userID, id string, in UpdateClientInput) (*domain.Client, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if in.ClientReference != nil {
		ref := strings.TrimSpace(*in.ClientReference)
		in.ClientReference = &ref
	}

	if err := s.validateStruct(in); err != nil {
		return nil, err
	}
	if in.ExpectedPaymentDay.Set && in.ExpectedPaymentDay.Value != nil && !domain.ValidPaymentDay(*in.ExpectedPaymentDay.Value) {
		return nil, apperrors.Validation("Invalid input").
			WithDetail("expectedPaymentDay", paymentDayMsg)
	}

	c, err := s.ownedClient(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.ClientReference != nil {
		c.ClientReference = *in.ClientReference
	}
	if in.ExpectedPaymentDay.Set {
		c.SetPaymentDay(in.ExpectedPaymentDay.Value)
	}

	if err := s.clients.Update(ctx, c); err != nil {
		switch {
		case errors.Is(err, sqlstore.ErrDuplicateReference):
			return nil, apperrors.Conflict(duplicateReferenceMsg)
		case errors.Is(err, sqlstore.ErrNotFound):
			return nil, apperrors.NotFound("Client not found")
		}
		return nil, apperrors.Internal("Failed to update client", err)
	}
	return c, nil
}

// DeleteClient removes a client. Its transactions stay, unassigned.
func (s *Service) DeleteClient(ctx context.Context, userID, id string) error {
	if _, err := s.ownedClient(ctx, userID, id); err != nil {
		return err
	}
	if err := s.clients.Delete(ctx, id); err != nil {
		if errors.Is(err, sqlstore.ErrNotFound) {
			return apperrors.NotFound("Client not found")
		}
		return apperrors.Internal("Failed to delete client", err)
	}
	return nil
}

// ListClients returns the user's clients with their payment status for the
// current month.
func (s *Service) ListClients(ctx context.Context, userID string) ([]ClientWithStatus, error) {
	clients, err := s.clients.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch clients", err)
	}

	now := s.now()
	out := make([]ClientWithStatus, 0, len(clients))
	for _, c := range clients {
		paid, err := s.reconciler.HasPaidThisMonth(ctx, c, now)
		if err != nil {
			return nil, apperrors.Internal("Failed to fetch clients", err)
		}
		out = append(out, ClientWithStatus{Client: c, HasPaidThisMonth: paid})
	}
	return out, nil
}

// GetClient returns a client with the transactions matching its reference.
func (s *Service) GetClient(ctx context.Context, userID, id string) (*ClientWithTransactions, error) {
	c, err := s.ownedClient(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	matched, err := s.reconciler.Matches(ctx, *c)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch client", err)
	}
	return &ClientWithTransactions{Client: *c, Transactions: matched}, nil
}

// AssignMatches links the client's unassigned matching transactions to it.
func (s *Service) AssignMatches(ctx context.Context, userID, id string) (int64, error) {
	c, err := s.ownedClient(ctx, userID, id)
	if err != nil {
		return 0, err
	}
	n, err := s.reconciler.AssignMatches(ctx, *c)
	if err != nil {
		return 0, apperrors.Internal("Failed to assign transactions", err)
	}
	return n, nil
}
