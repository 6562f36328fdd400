package domain

// Output column names. The set and order are fixed regardless of vendor;
// columns a vendor never populates are emitted as empty strings.
const (
	ColSupplier    = "Supplier"
	ColSupplierRef = "Supplier Reference"
	ColProduct     = "Order Line/Product"
	ColDescription = "Order Line/Description"
	ColQuantity    = "Order Line/Quantity"
	ColUnitPrice   = "Order Line/Unit Price"
	ColDiscount    = "Order Line/Discount(%)"
	ColDeliverTo   = "Deliver To"
)

// Header returns the output column schema in its declared order.
func Header() []string {
	return []string{
		ColSupplier,
		ColSupplierRef,
		ColProduct,
		ColDescription,
		ColQuantity,
		ColUnitPrice,
		ColDiscount,
		ColDeliverTo,
	}
}
