package project

// ModuleDef describes a module to create
type ModuleDef struct {
	Name        string
	Description string
	Priority    int
}

// DefaultModules is the module set created by init
var DefaultModules = []ModuleDef{
	{"core", "Núcleo do sistema, incluindo autenticação e estrutura multi-tenant", 1},
	{"subscription", "Sistema de assinaturas e integração com Stripe", 2},
	{"restaurant_types", "Gestão de diferentes tipos de restaurante e fluxos específicos", 3},
	{"tables_qrcode", "Gerenciamento de mesas e sistema de QR Code", 4},
	{"menu_orders", "Cardápio digital e sistema de pedidos", 5},
	{"payments", "Processamento de pagamentos e divisão de contas", 6},
	{"integrations", "Integrações com serviços externos (iFood, sistemas fiscais)", 7},
}

// EnsureModules creates each module in defs that does not exist yet and
// returns the names created
func (t *Tracker) EnsureModules(defs []ModuleDef) ([]string, error) {
	var created []string
	for _, d := range defs {
		if t.HasModule(d.Name) {
			continue
		}
		if _, err := t.CreateModule(d.Name, d.Description, d.Priority); err != nil {
			return created, err
		}
		created = append(created, d.Name)
	}
	return created, nil
}
