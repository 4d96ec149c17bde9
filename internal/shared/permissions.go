package shared

// Actions evaluated by Allow. Kept as a flat namespace so new operations
// register their permission in one place instead of branching inline.
const (
	ActionCatalogEdit    = "catalog.edit"
	ActionCatalogPublish = "catalog.publish"

	ActionPurchaseRecord = "purchases.record"
	ActionPurchaseEdit   = "purchases.edit"
	ActionPurchaseView   = "purchases.view"

	ActionSaleCreate       = "sales.create"
	ActionSaleView         = "sales.view"
	ActionSaleList         = "sales.list"
	ActionSaleStatusUpdate = "sales.status.update"
	ActionSaleCancel       = "sales.cancel"
	ActionSaleRemove       = "sales.remove"

	ActionStatsView = "stats.view"
)

// Allow decides whether actor may perform action against a resource owned by
// ownerID. Pass zero when the action has no owner. All permission decisions
// go through here; services never compare roles directly.
func Allow(actor Principal, action string, ownerID int64) bool {
	if !actor.Role.Valid() {
		return false
	}
	switch action {
	case ActionSaleCreate:
		return true
	case ActionSaleView:
		return actor.Role.IsAdminClass() || actor.Role == RoleStaff || actor.ID == ownerID
	case ActionSaleCancel:
		return actor.Role.IsAdminClass() || actor.ID == ownerID
	case ActionSaleList, ActionSaleStatusUpdate, ActionSaleRemove:
		return actor.Role.IsAdminClass()
	case ActionCatalogEdit, ActionCatalogPublish:
		return actor.Role.IsAdminClass()
	case ActionPurchaseRecord, ActionPurchaseEdit:
		return actor.Role.IsAdminClass()
	case ActionPurchaseView:
		return actor.Role.IsAdminClass() || actor.Role == RoleStaff
	case ActionStatsView:
		return actor.Role.IsAdminClass()
	}
	return false
}
