package odoo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/neo2475/odoo-importer/internal/config"
	"github.com/neo2475/odoo-importer/internal/domain"
	"github.com/neo2475/odoo-importer/internal/numparse"
	"github.com/neo2475/odoo-importer/internal/port"
	"github.com/neo2475/odoo-importer/internal/record"
)

// Importer turns flattened tables into draft purchase orders.
type Importer struct {
	client *Client
	cfg    config.ImportConfig
	log    *zap.Logger
}

// NewImporter wires an authenticated client with import behavior settings.
func NewImporter(client *Client, cfg config.ImportConfig, log *zap.Logger) *Importer {
	return &Importer{client: client, cfg: cfg, log: log}
}

var _ port.OrderImporter = (*Importer)(nil)

// ImportTable creates a draft purchase order for the table. Orders already
// present (same partner_ref or same content hash, non-cancelled) are skipped
// unless the force flag is set. Negative quantities are kept and flag the
// order as a refund.
func (im *Importer) ImportTable(ctx context.Context, table *record.Table) (*port.ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !table.HasColumns(domain.Header()...) {
		return nil, fmt.Errorf("odoo: table is missing required columns")
	}
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("odoo: table has no rows")
	}

	supplier, ref, deliverTo := table.DocumentCells()
	supplier = strings.TrimSpace(supplier)
	ref = strings.TrimSpace(ref)
	deliverTo = strings.TrimSpace(deliverTo)

	partnerID, err := im.findPartner(supplier)
	if err != nil {
		return nil, err
	}
	if partnerID == 0 {
		return nil, fmt.Errorf("odoo: supplier not found: %q", supplier)
	}

	if im.cfg.DedupByPartnerRef && ref != "" {
		ids, err := im.client.SearchIDs("purchase.order", []interface{}{
			[]interface{}{"partner_ref", "=", ref},
			[]interface{}{"partner_id", "=", partnerID},
			[]interface{}{"state", "!=", "cancel"},
		}, map[string]interface{}{"limit": 1})
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 && !im.cfg.Force {
			im.log.Info("purchase order already exists for supplier reference",
				zap.String("ref", ref), zap.Int64("order_id", ids[0]))
			return &port.ImportResult{OrderID: ids[0], Skipped: true}, nil
		}
	}

	importHash := ImportHash(partnerID, ref, "", table.Lines())
	if dup := im.findByHash(importHash, partnerID); dup != 0 {
		if !im.cfg.Force {
			im.log.Info("purchase order with identical content already exists",
				zap.Int64("order_id", dup))
			return &port.ImportResult{OrderID: dup, Skipped: true}, nil
		}
		im.log.Warn("duplicate content hash, importing anyway", zap.Int64("order_id", dup))
	}

	pickingTypeID, err := im.findIncomingPickingType(deliverTo)
	if err != nil {
		im.log.Warn("incoming picking type lookup failed", zap.Error(err))
	}

	datePlanned := time.Now().UTC().Format("2006-01-02 15:04:05")
	var orderLines []interface{}
	refund := false

	for _, line := range table.Lines() {
		sku := ExtractSKU(strings.TrimSpace(line.Product))
		desc := strings.TrimSpace(line.Description)
		qty := numparse.ParseFlexible(line.Quantity, 0)
		price := numparse.ParseFlexible(line.UnitPrice, 0)
		effDisc := numparse.ParseDiscountChain(line.Discount)

		// Negative quantities are refund lines; zero quantity or a missing
		// code drops the line.
		if sku == "" || qty == 0 {
			continue
		}
		if qty < 0 {
			refund = true
		}

		productID, uomPoID, err := im.resolveProduct(sku, line.Product, desc, partnerID)
		if err != nil {
			im.log.Error("product resolution failed", zap.String("sku", sku), zap.Error(err))
			continue
		}

		name := desc
		if name == "" {
			name = sku
		}
		vals := map[string]interface{}{
			"name":         name,
			"product_id":   productID,
			"product_qty":  qty,
			"price_unit":   abs(price),
			"date_planned": datePlanned,
		}
		if uomPoID != 0 {
			vals["product_uom"] = uomPoID
		}
		if effDisc > 0 {
			vals["discount"] = effDisc
		}
		orderLines = append(orderLines, []interface{}{0, 0, vals})
	}

	if len(orderLines) == 0 {
		return nil, fmt.Errorf("odoo: no importable lines for %q", supplier)
	}

	poVals := map[string]interface{}{
		"partner_id":  partnerID,
		"partner_ref": ref,
		"date_order":  time.Now().UTC().Format("2006-01-02 15:04:05"),
		"order_line":  orderLines,
	}
	if pickingTypeID != 0 {
		poVals["picking_type_id"] = pickingTypeID
	}
	if importHash != "" {
		poVals["x_import_hash"] = importHash
	}

	orderID, err := im.client.Create("purchase.order", poVals)
	if err != nil {
		return nil, err
	}

	var orderName string
	if recs, err := im.client.Read("purchase.order", []int64{orderID}, []string{"name"}); err == nil && len(recs) > 0 {
		orderName, _ = recs[0]["name"].(string)
	}

	// The order stays a draft RFQ; confirmation is a manual step.

	if refund {
		if err := im.client.Write("purchase.order", []int64{orderID}, map[string]interface{}{
			"x_is_refund": true,
		}); err != nil {
			im.log.Debug("refund flag not stored", zap.Error(err))
		}
	}

	im.log.Info("purchase order created",
		zap.Int64("order_id", orderID),
		zap.String("order_name", orderName),
		zap.Int64("partner_id", partnerID),
		zap.String("ref", ref))
	return &port.ImportResult{OrderID: orderID, OrderName: orderName, Refund: refund}, nil
}

// findPartner matches the supplier name, first restricted to vendors, then
// relaxed to any partner.
func (im *Importer) findPartner(name string) (int64, error) {
	if name == "" {
		return 0, nil
	}
	strict := []interface{}{
		"&",
		"|",
		[]interface{}{"name", "ilike", name},
		[]interface{}{"display_name", "ilike", name},
		[]interface{}{"supplier_rank", ">", 0},
	}
	ids, err := im.client.SearchIDs("res.partner", strict, map[string]interface{}{"limit": 1})
	if err != nil {
		return 0, err
	}
	if len(ids) > 0 {
		return ids[0], nil
	}
	relaxed := []interface{}{
		"|",
		[]interface{}{"name", "ilike", name},
		[]interface{}{"display_name", "ilike", name},
	}
	ids, err = im.client.SearchIDs("res.partner", relaxed, map[string]interface{}{"limit": 1})
	if err != nil {
		return 0, err
	}
	if len(ids) > 0 {
		return ids[0], nil
	}
	return 0, nil
}

func (im *Importer) findByHash(hash string, partnerID int64) int64 {
	if hash == "" {
		return 0
	}
	ids, err := im.client.SearchIDs("purchase.order", []interface{}{
		[]interface{}{"x_import_hash", "=", hash},
		[]interface{}{"partner_id", "=", partnerID},
		[]interface{}{"state", "!=", "cancel"},
	}, map[string]interface{}{"limit": 1})
	if err != nil || len(ids) == 0 {
		// Instances without the custom field reject the domain; treat as
		// no duplicate.
		return 0
	}
	return ids[0]
}

// resolveProduct finds the product for a vendor code: exact default_code,
// then space-stripped, then partial match, finally creating the product.
func (im *Importer) resolveProduct(sku, rawProduct, desc string, partnerID int64) (int64, int64, error) {
	if id, uom, err := im.findProductByCode(sku); err != nil {
		return 0, 0, err
	} else if id != 0 {
		return id, uom, nil
	}

	if alt := strings.ReplaceAll(sku, " ", ""); alt != sku {
		if id, uom, err := im.findProductByCode(alt); err != nil {
			return 0, 0, err
		} else if id != 0 {
			return id, uom, nil
		}
	}

	needles := append([]string{sku}, LongDigitRuns(rawProduct, desc)...)
	if id, uom := im.findProductPartial(needles); id != 0 {
		return id, uom, nil
	}

	name := desc
	if name == "" {
		name = sku
	}
	return im.createProduct(sku, name, partnerID)
}

func (im *Importer) findProductByCode(code string) (int64, int64, error) {
	if code == "" {
		return 0, 0, nil
	}
	tmplIDs, err := im.client.SearchIDs("product.template", []interface{}{
		[]interface{}{"default_code", "=", code},
	}, map[string]interface{}{"limit": 1})
	if err != nil {
		return 0, 0, err
	}
	if len(tmplIDs) == 0 {
		return 0, 0, nil
	}
	recs, err := im.client.Read("product.template", tmplIDs, []string{"uom_po_id"})
	if err != nil {
		return 0, 0, err
	}
	productIDs, err := im.client.SearchIDs("product.product", []interface{}{
		[]interface{}{"product_tmpl_id", "=", tmplIDs[0]},
	}, map[string]interface{}{"limit": 1})
	if err != nil {
		return 0, 0, err
	}
	if len(productIDs) == 0 {
		return 0, 0, nil
	}
	var uomPoID int64
	if len(recs) > 0 {
		uomPoID = many2oneID(recs[0]["uom_po_id"])
	}
	return productIDs[0], uomPoID, nil
}

type partialCandidate struct {
	score     int
	codeLen   int
	writeDate string
	tmplID    int64
	uomPoID   int64
	productID int64
}

func (c partialCandidate) better(o partialCandidate) bool {
	if c.score != o.score {
		return c.score > o.score
	}
	// Shorter codes are closer matches.
	if c.codeLen != o.codeLen {
		return c.codeLen < o.codeLen
	}
	if c.writeDate != o.writeDate {
		return c.writeDate > o.writeDate
	}
	return c.tmplID > o.tmplID
}

// findProductPartial ranks templates whose default_code contains one of the
// needles: exact match, then suffix, then substring.
func (im *Importer) findProductPartial(needles []string) (int64, int64) {
	clean := make([]string, 0, len(needles))
	for _, n := range needles {
		if n = strings.ToUpper(strings.TrimSpace(n)); n != "" {
			clean = append(clean, n)
		}
	}
	if len(clean) == 0 {
		return 0, 0
	}

	var best *partialCandidate
	seen := map[int64]bool{}

	for _, needle := range clean {
		recs, err := im.client.SearchRead("product.template", []interface{}{
			[]interface{}{"default_code", "ilike", needle},
		}, map[string]interface{}{
			"fields": []string{"id", "default_code", "uom_po_id", "write_date"},
			"limit":  50,
			"order":  "write_date desc",
		})
		if err != nil {
			continue
		}
		for _, rec := range recs {
			tmplID, _ := rec["id"].(int64)
			if tmplID == 0 || seen[tmplID] {
				continue
			}
			seen[tmplID] = true
			code, _ := rec["default_code"].(string)
			score := matchScore(code, needle)
			if score <= 0 {
				continue
			}
			productIDs, err := im.client.SearchIDs("product.product", []interface{}{
				[]interface{}{"product_tmpl_id", "=", tmplID},
			}, map[string]interface{}{"limit": 1})
			if err != nil || len(productIDs) == 0 {
				continue
			}
			writeDate, _ := rec["write_date"].(string)
			cand := partialCandidate{
				score:     score,
				codeLen:   len(code),
				writeDate: writeDate,
				tmplID:    tmplID,
				uomPoID:   many2oneID(rec["uom_po_id"]),
				productID: productIDs[0],
			}
			if best == nil || cand.better(*best) {
				c := cand
				best = &c
			}
		}
	}

	if best == nil {
		return 0, 0
	}
	return best.productID, best.uomPoID
}

func matchScore(code, needle string) int {
	code = strings.ToUpper(code)
	if code == "" || needle == "" {
		return 0
	}
	switch {
	case code == needle:
		return 100
	case strings.HasSuffix(code, needle):
		return 90
	case strings.Contains(code, needle):
		return 80
	}
	return 0
}

// createProduct creates a stockable, purchasable template plus its supplier
// pricelist entry and returns the variant id.
func (im *Importer) createProduct(code, name string, supplierID int64) (int64, int64, error) {
	uomID, err := im.findUnitUoM()
	if err != nil {
		im.log.Debug("unit uom lookup failed", zap.Error(err))
	}

	tmplVals := map[string]interface{}{
		"name":         name,
		"default_code": code,
		"type":         "product",
		"purchase_ok":  true,
		"sale_ok":      true,
	}
	if uomID != 0 {
		tmplVals["uom_id"] = uomID
		tmplVals["uom_po_id"] = uomID
	}
	tmplID, err := im.client.Create("product.template", tmplVals)
	if err != nil {
		return 0, 0, err
	}

	productIDs, err := im.client.SearchIDs("product.product", []interface{}{
		[]interface{}{"product_tmpl_id", "=", tmplID},
	}, map[string]interface{}{"limit": 1})
	if err != nil || len(productIDs) == 0 {
		return 0, 0, fmt.Errorf("odoo: no variant for created template %d", tmplID)
	}

	if _, err := im.client.Create("product.supplierinfo", map[string]interface{}{
		"name":            supplierID,
		"product_tmpl_id": tmplID,
		"product_name":    name,
		"product_code":    code,
	}); err != nil {
		im.log.Debug("supplierinfo not created", zap.Error(err))
	}

	im.log.Info("product created", zap.String("code", code), zap.Int64("template_id", tmplID))
	return productIDs[0], uomID, nil
}

func (im *Importer) findUnitUoM() (int64, error) {
	ids, err := im.client.SearchIDs("uom.uom", []interface{}{
		[]interface{}{"category_id.name", "=", "Unit"},
	}, map[string]interface{}{"limit": 1})
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	return ids[0], nil
}

// findIncomingPickingType maps the "Deliver To" warehouse name to its
// incoming picking type, falling back to the first incoming type.
func (im *Importer) findIncomingPickingType(deliverTo string) (int64, error) {
	if deliverTo != "" {
		whIDs, err := im.client.SearchIDs("stock.warehouse", []interface{}{
			[]interface{}{"name", "ilike", deliverTo},
		}, map[string]interface{}{"limit": 1})
		if err != nil {
			return 0, err
		}
		if len(whIDs) > 0 {
			recs, err := im.client.Read("stock.warehouse", whIDs, []string{"in_type_id"})
			if err != nil {
				return 0, err
			}
			if len(recs) > 0 {
				if id := many2oneID(recs[0]["in_type_id"]); id != 0 {
					return id, nil
				}
			}
		}
		ptIDs, err := im.client.SearchIDs("stock.picking.type", []interface{}{
			[]interface{}{"name", "ilike", deliverTo},
			[]interface{}{"code", "=", "incoming"},
		}, map[string]interface{}{"limit": 1})
		if err != nil {
			return 0, err
		}
		if len(ptIDs) > 0 {
			return ptIDs[0], nil
		}
	}

	ptIDs, err := im.client.SearchIDs("stock.picking.type", []interface{}{
		[]interface{}{"code", "=", "incoming"},
	}, map[string]interface{}{"limit": 1})
	if err != nil || len(ptIDs) == 0 {
		return 0, err
	}
	return ptIDs[0], nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
