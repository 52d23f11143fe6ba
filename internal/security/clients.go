package security

// In-memory client registry for the admin token endpoint (replace with
// DB/config later).
type Client struct {
	ID      string
	Secret  string
	Perms   []string // e.g. {"orders.read","orders.admin"}
	Enabled bool
}

var Clients = map[string]Client{
	"shop-admin":    {ID: "shop-admin", Secret: "shop-admin-secret", Perms: []string{"orders.read", "orders.write", "orders.admin"}, Enabled: true},
	"svc-storefront": {ID: "svc-storefront", Secret: "storefront-secret", Perms: []string{"orders.read", "orders.write"}, Enabled: true},
	"svc-analytics": {ID: "svc-analytics", Secret: "ana-secret", Perms: []string{"orders.read"}, Enabled: true},
}
