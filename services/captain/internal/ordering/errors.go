package ordering

import (
	"fmt"

	"github.com/appetiteclub/captain/services/captain/internal/gateway"
)

// Local rejections. They are warnings: the operation did not apply and no
// request was issued.
var (
	ErrPortionRequired     = gateway.Rejected("Choose a half or full portion for this item")
	ErrPortionUnavailable  = gateway.Rejected("This portion is not available for this item")
	ErrQuantityLimit       = gateway.Rejected(fmt.Sprintf("You can add up to %d of an item", MaxItemQuantity))
	ErrItemNotFound        = gateway.Rejected("Item is not on the menu")
	ErrNotInCart           = gateway.Rejected("Item is not in the cart")
	ErrUnknownCategory     = gateway.Rejected("Unknown category")
	ErrTableReserved       = gateway.Rejected("Table is reserved. Unreserve it to take an order")
	ErrEmptyCart           = gateway.Rejected("Add at least one item before placing the order")
	ErrNotReady            = gateway.Rejected("Menu is still loading")
	ErrAlreadyLoaded       = gateway.Rejected("Menu is already loaded")
	ErrSubmitting          = gateway.Rejected("Order is being submitted")
	ErrClosed              = gateway.Rejected("This order screen is closed")
	ErrReservationDisabled = gateway.Rejected("Table reservation is disabled")
	ErrNoTable             = gateway.Rejected("No table selected")
	ErrTableOccupied       = gateway.Rejected("Table is occupied")
	ErrTableHasOrder       = gateway.Rejected("Table already has an order")
	ErrAlreadyReserved     = gateway.Rejected("Table is already reserved")
	ErrNotReserved         = gateway.Rejected("Table is not reserved")
	ErrSameTable           = gateway.Rejected("Choose a different table")
	ErrNoTargetTable       = gateway.Rejected("Choose a table to move to")
)
