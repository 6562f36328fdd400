// Package odoo creates draft purchase orders over XML-RPC from flattened
// delivery-note tables.
package odoo

import (
	"errors"
	"fmt"

	"github.com/kolo/xmlrpc"

	"github.com/neo2475/odoo-importer/internal/config"
)

// Client is an authenticated XML-RPC session against an Odoo instance.
type Client struct {
	object   *xmlrpc.Client
	db       string
	password string
	uid      int64
}

// Dial connects to the instance at cfg.URL and authenticates.
func Dial(cfg config.OdooConfig) (*Client, error) {
	if cfg.URL == "" || cfg.DB == "" || cfg.User == "" || cfg.Password == "" {
		return nil, errors.New("odoo: missing url, db, user or password")
	}

	common, err := xmlrpc.NewClient(cfg.URL+"/xmlrpc/2/common", nil)
	if err != nil {
		return nil, fmt.Errorf("odoo: connect common endpoint: %w", err)
	}
	defer common.Close()

	// authenticate returns the uid, or false on bad credentials.
	var raw interface{}
	err = common.Call("authenticate", []interface{}{cfg.DB, cfg.User, cfg.Password, map[string]interface{}{}}, &raw)
	if err != nil {
		return nil, fmt.Errorf("odoo: authenticate: %w", err)
	}
	uid, ok := raw.(int64)
	if !ok || uid == 0 {
		return nil, errors.New("odoo: authentication failed, check credentials")
	}

	object, err := xmlrpc.NewClient(cfg.URL+"/xmlrpc/2/object", nil)
	if err != nil {
		return nil, fmt.Errorf("odoo: connect object endpoint: %w", err)
	}

	return &Client{object: object, db: cfg.DB, password: cfg.Password, uid: uid}, nil
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.object.Close()
}

// ExecuteKw invokes model.method with positional args and keyword options,
// decoding the reply into out.
func (c *Client) ExecuteKw(model, method string, args []interface{}, kw map[string]interface{}, out interface{}) error {
	if kw == nil {
		kw = map[string]interface{}{}
	}
	params := []interface{}{c.db, c.uid, c.password, model, method, args, kw}
	if err := c.object.Call("execute_kw", params, out); err != nil {
		return fmt.Errorf("odoo: %s.%s: %w", model, method, err)
	}
	return nil
}

// SearchIDs runs a search on model with the given domain.
func (c *Client) SearchIDs(model string, domain []interface{}, kw map[string]interface{}) ([]int64, error) {
	var ids []int64
	if err := c.ExecuteKw(model, "search", []interface{}{domain}, kw, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SearchRead runs a search_read on model, returning raw records.
func (c *Client) SearchRead(model string, domain []interface{}, kw map[string]interface{}) ([]map[string]interface{}, error) {
	var recs []map[string]interface{}
	if err := c.ExecuteKw(model, "search_read", []interface{}{domain}, kw, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Read fetches the given fields of ids on model.
func (c *Client) Read(model string, ids []int64, fields []string) ([]map[string]interface{}, error) {
	var recs []map[string]interface{}
	kw := map[string]interface{}{"fields": fields}
	if err := c.ExecuteKw(model, "read", []interface{}{ids}, kw, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Create inserts a record and returns its id.
func (c *Client) Create(model string, vals map[string]interface{}) (int64, error) {
	var id int64
	if err := c.ExecuteKw(model, "create", []interface{}{vals}, nil, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// Write updates the given records.
func (c *Client) Write(model string, ids []int64, vals map[string]interface{}) error {
	var ok bool
	return c.ExecuteKw(model, "write", []interface{}{ids, vals}, nil, &ok)
}

// many2oneID unpacks Odoo's [id, display_name] representation.
func many2oneID(v interface{}) int64 {
	pair, ok := v.([]interface{})
	if !ok || len(pair) == 0 {
		return 0
	}
	id, _ := pair[0].(int64)
	return id
}
