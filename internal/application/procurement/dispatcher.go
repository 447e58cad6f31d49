package procurement

import (
	"context"
	"fmt"

	"github.com/erp/procurement/internal/domain/billing"
	"github.com/erp/procurement/internal/domain/document"
	"github.com/erp/procurement/internal/domain/identity"
	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
)

// Verb is an action applied to a resource
type Verb string

const (
	VerbList    Verb = "list"
	VerbGet     Verb = "get"
	VerbAdd     Verb = "add"
	VerbEdit    Verb = "edit"
	VerbDelete  Verb = "delete"
	VerbApprove Verb = "approve"
	VerbReject  Verb = "reject"
	VerbUpload  Verb = "upload"
)

// Resources beyond the document kinds
const (
	ResourceJournal    = "journal"
	ResourceLedger     = "inventory_ledger"
	ResourceStock      = "stock"
	ResourceAdjustment = "stock_adjustment"
)

// ActionKey identifies one routable action
type ActionKey struct {
	Resource string
	Verb     Verb
}

func (k ActionKey) String() string {
	return k.Resource + ":" + string(k.Verb)
}

// Request is an authenticated, bound action request
type Request struct {
	Principal identity.Principal
	ID        uuid.UUID
	Payload   any
	Filter    shared.Filter
}

// Result is what an action returns to the transport layer
type Result struct {
	Data    any
	Created bool
}

// Action is one entry in the dispatch table
type Action struct {
	Roles   []identity.Role
	Execute func(ctx context.Context, req Request) (Result, error)
}

// Dispatcher routes (resource, verb) pairs to actions after a role check
type Dispatcher struct {
	actions map[ActionKey]Action
}

// Services bundles the application services the dispatcher routes to
type Services struct {
	Documents *DocumentService
	Billing   *BillingService
	Inventory *InventoryService
	Journal   *JournalService
}

var (
	editors   = []identity.Role{identity.RoleAdmin, identity.RolePurchasing}
	approvers = []identity.Role{identity.RoleAdmin, identity.RoleApprover}
	finance   = []identity.Role{identity.RoleAdmin, identity.RoleFinance}
)

// NewDispatcher builds the dispatch table over svc
func NewDispatcher(svc Services) *Dispatcher {
	d := &Dispatcher{actions: make(map[ActionKey]Action)}
	for _, kind := range document.AllKinds() {
		d.registerDocument(svc.Documents, kind)
	}
	d.registerBilling(svc.Billing)

	d.Register(ActionKey{ResourceJournal, VerbList}, Action{
		Execute: func(ctx context.Context, req Request) (Result, error) {
			return wrap(svc.Journal.List(ctx, req.Filter))
		},
	})
	d.Register(ActionKey{ResourceLedger, VerbList}, Action{
		Execute: func(ctx context.Context, req Request) (Result, error) {
			filter, err := payloadAs[inventory.LedgerFilter](req)
			if err != nil {
				return Result{}, err
			}
			filter.Filter = req.Filter
			return wrap(svc.Inventory.ListLedger(ctx, filter))
		},
	})
	d.Register(ActionKey{ResourceStock, VerbList}, Action{
		Execute: func(ctx context.Context, req Request) (Result, error) {
			return wrap(svc.Inventory.ListStocks(ctx, req.Filter))
		},
	})
	d.Register(ActionKey{ResourceAdjustment, VerbAdd}, Action{
		Roles: finance,
		Execute: func(ctx context.Context, req Request) (Result, error) {
			in, err := payloadAs[AdjustStockInput](req)
			if err != nil {
				return Result{}, err
			}
			return wrap(svc.Inventory.AdjustStock(ctx, req.Principal, in))
		},
	})
	return d
}

func (d *Dispatcher) registerDocument(svc *DocumentService, kind document.Kind) {
	resource := kind.String()
	approveRoles := approvers
	if kind == document.KindShipment {
		approveRoles = append([]identity.Role{identity.RoleWarehouse}, approvers...)
	}

	d.Register(ActionKey{resource, VerbList}, Action{
		Execute: func(ctx context.Context, req Request) (Result, error) {
			return wrap(svc.List(ctx, kind, req.Filter))
		},
	})
	d.Register(ActionKey{resource, VerbGet}, Action{
		Execute: func(ctx context.Context, req Request) (Result, error) {
			return wrap(svc.Get(ctx, kind, req.ID))
		},
	})
	d.Register(ActionKey{resource, VerbAdd}, Action{
		Roles: editors,
		Execute: func(ctx context.Context, req Request) (Result, error) {
			in, err := payloadAs[DocumentInput](req)
			if err != nil {
				return Result{}, err
			}
			res, err := wrap(svc.Add(ctx, kind, req.Principal, in))
			res.Created = err == nil
			return res, err
		},
	})
	d.Register(ActionKey{resource, VerbEdit}, Action{
		Roles: editors,
		Execute: func(ctx context.Context, req Request) (Result, error) {
			in, err := payloadAs[DocumentInput](req)
			if err != nil {
				return Result{}, err
			}
			return wrap(svc.Edit(ctx, kind, req.ID, req.Principal, in))
		},
	})
	d.Register(ActionKey{resource, VerbDelete}, Action{
		Roles: editors,
		Execute: func(ctx context.Context, req Request) (Result, error) {
			return Result{}, svc.Delete(ctx, kind, req.ID)
		},
	})
	d.Register(ActionKey{resource, VerbApprove}, Action{
		Roles: approveRoles,
		Execute: func(ctx context.Context, req Request) (Result, error) {
			return wrap(svc.Approve(ctx, kind, req.ID, req.Principal))
		},
	})
	d.Register(ActionKey{resource, VerbReject}, Action{
		Roles: approvers,
		Execute: func(ctx context.Context, req Request) (Result, error) {
			in, _ := req.Payload.(RejectInput)
			return wrap(svc.Reject(ctx, kind, req.ID, req.Principal, in))
		},
	})
	d.Register(ActionKey{resource, VerbUpload}, Action{
		Roles: editors,
		Execute: func(ctx context.Context, req Request) (Result, error) {
			in, err := payloadAs[AttachmentInput](req)
			if err != nil {
				return Result{}, err
			}
			return wrap(svc.AddAttachment(ctx, kind, req.ID, in))
		},
	})
}

func (d *Dispatcher) registerBilling(svc *BillingService) {
	for _, kind := range []billing.Kind{billing.KindOrder, billing.KindInvoice} {
		d.Register(ActionKey{string(kind), VerbList}, Action{
			Execute: func(ctx context.Context, req Request) (Result, error) {
				return wrap(svc.List(ctx, kind, req.Filter))
			},
		})
		d.Register(ActionKey{string(kind), VerbGet}, Action{
			Execute: func(ctx context.Context, req Request) (Result, error) {
				return wrap(svc.Get(ctx, kind, req.ID))
			},
		})
	}
	d.Register(ActionKey{string(billing.KindOrder), VerbApprove}, Action{
		Roles: finance,
		Execute: func(ctx context.Context, req Request) (Result, error) {
			return wrap(svc.ApproveBillingOrder(ctx, req.ID, req.Principal))
		},
	})
	d.Register(ActionKey{string(billing.KindInvoice), VerbApprove}, Action{
		Roles: finance,
		Execute: func(ctx context.Context, req Request) (Result, error) {
			in, err := payloadAs[PaymentInput](req)
			if err != nil {
				return Result{}, err
			}
			return wrap(svc.PayBillingInvoice(ctx, req.ID, req.Principal, in))
		},
	})
}

// Register adds or replaces an action
func (d *Dispatcher) Register(key ActionKey, action Action) {
	d.actions[key] = action
}

// Lookup returns the action for key
func (d *Dispatcher) Lookup(key ActionKey) (Action, bool) {
	a, ok := d.actions[key]
	return a, ok
}

// Dispatch checks the caller's roles and executes the action
func (d *Dispatcher) Dispatch(ctx context.Context, key ActionKey, req Request) (Result, error) {
	action, ok := d.actions[key]
	if !ok {
		return Result{}, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Unknown action %s", key))
	}
	if !req.Principal.Roles.HasAny(action.Roles...) {
		return Result{}, shared.ErrForbidden
	}
	return action.Execute(ctx, req)
}

func payloadAs[T any](req Request) (T, error) {
	v, ok := req.Payload.(T)
	if !ok {
		var zero T
		return zero, shared.ErrInvalidInput
	}
	return v, nil
}

func wrap[T any](data *T, err error) (Result, error) {
	if err != nil {
		return Result{}, err
	}
	return Result{Data: data}, nil
}
