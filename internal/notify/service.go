package notify

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/velora-pos/velora/internal/sales"
	"github.com/velora-pos/velora/internal/shared"
)

// RepositoryPort abstracts notification persistence for the service.
type RepositoryPort interface {
	Insert(ctx context.Context, n Notification) (int64, error)
	InsertMany(ctx context.Context, userIDs []int64, n Notification) error
	ListByUser(ctx context.Context, userID int64) ([]Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	Get(ctx context.Context, id int64) (Notification, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}

// AdminDirectory lists the users who receive admin fan-out notifications.
type AdminDirectory interface {
	ListAdminIDs(ctx context.Context) ([]int64, error)
}

// Service writes and reads notification rows.
type Service struct {
	logger  *slog.Logger
	repo    RepositoryPort
	admins  AdminDirectory
	printer *message.Printer
}

// NewService builds Service.
func NewService(logger *slog.Logger, repo RepositoryPort, admins AdminDirectory) *Service {
	return &Service{
		logger:  logger,
		repo:    repo,
		admins:  admins,
		printer: message.NewPrinter(language.English),
	}
}

// HandleSaleEvent routes a sale event to the matching notification writer.
func (s *Service) HandleSaleEvent(ctx context.Context, ev sales.Event) error {
	switch ev.Kind {
	case sales.EventNewSale:
		return s.notifyNewSale(ctx, ev)
	case sales.EventStatusChanged:
		return s.notifyStatusChanged(ctx, ev)
	case sales.EventSaleCancelled:
		return s.notifySaleCancelled(ctx, ev)
	default:
		return fmt.Errorf("%w: event kind %q", shared.ErrInvalidArgument, ev.Kind)
	}
}

// notifyNewSale fans out to every admin-class user.
func (s *Service) notifyNewSale(ctx context.Context, ev sales.Event) error {
	msg := s.printer.Sprintf("New sale #%d recorded for %.2f", ev.SaleID, ev.Total)
	if ev.CustomerName != "" {
		msg = s.printer.Sprintf("New sale #%d by %s recorded for %.2f", ev.SaleID, ev.CustomerName, ev.Total)
	}
	return s.fanOutToAdmins(ctx, Notification{SaleID: ev.SaleID, Kind: KindNewSale, Message: msg})
}

// notifyStatusChanged targets the sale's customer.
func (s *Service) notifyStatusChanged(ctx context.Context, ev sales.Event) error {
	msg := s.printer.Sprintf("Your sale #%d moved from %s to %s", ev.SaleID, ev.OldStatus, ev.NewStatus)
	_, err := s.repo.Insert(ctx, Notification{
		UserID:  ev.CustomerID,
		SaleID:  ev.SaleID,
		Kind:    KindStatusChanged,
		Message: msg,
	})
	return err
}

// notifySaleCancelled fans out to admins and tells the customer too.
func (s *Service) notifySaleCancelled(ctx context.Context, ev sales.Event) error {
	adminMsg := s.printer.Sprintf("Sale #%d for %.2f was cancelled", ev.SaleID, ev.Total)
	if err := s.fanOutToAdmins(ctx, Notification{SaleID: ev.SaleID, Kind: KindSaleCancelled, Message: adminMsg}); err != nil {
		return err
	}
	customerMsg := s.printer.Sprintf("Your sale #%d was cancelled", ev.SaleID)
	_, err := s.repo.Insert(ctx, Notification{
		UserID:  ev.CustomerID,
		SaleID:  ev.SaleID,
		Kind:    KindSaleCancelled,
		Message: customerMsg,
	})
	return err
}

func (s *Service) fanOutToAdmins(ctx context.Context, n Notification) error {
	ids, err := s.admins.ListAdminIDs(ctx)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}
	if len(ids) == 0 {
		s.logger.Warn("no admin recipients for notification", slog.Int64("sale_id", n.SaleID))
		return nil
	}
	return s.repo.InsertMany(ctx, ids, n)
}

// List returns the acting user's notifications.
func (s *Service) List(ctx context.Context, actor shared.Principal) ([]Notification, error) {
	return s.repo.ListByUser(ctx, actor.ID)
}

// UnreadCount returns the acting user's unread notification count.
func (s *Service) UnreadCount(ctx context.Context, actor shared.Principal) (int64, error) {
	return s.repo.UnreadCount(ctx, actor.ID)
}

// MarkRead flags one of the acting user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, id int64, actor shared.Principal) error {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != actor.ID {
		return fmt.Errorf("%w: notification %d belongs to another user", shared.ErrForbidden, id)
	}
	return s.repo.MarkRead(ctx, id)
}

// MarkAllRead flags all of the acting user's notifications as read.
func (s *Service) MarkAllRead(ctx context.Context, actor shared.Principal) error {
	return s.repo.MarkAllRead(ctx, actor.ID)
}
