package snapshot

// Raw entity records as produced by the extraction stage, one parquet file per
// run under <bronze>/<entity>/. Date fields arrive as strings and are parsed
// defensively by the transform stage.

// Client is a raw clientes record.
type Client struct {
	ID      int64  `parquet:"id"`
	Name    string `parquet:"name"`
	CPFCNPJ string `parquet:"cpf_cnpj"`
	Email   string `parquet:"email"`
	Phone   string `parquet:"phone"`
	Address string `parquet:"address"`
}

// Category is a raw categorias record.
type Category struct {
	ID          int64  `parquet:"id"`
	Name        string `parquet:"name"`
	Description string `parquet:"description"`
}

// Product is a raw produtos record.
type Product struct {
	ID          int64   `parquet:"id"`
	Name        string  `parquet:"name"`
	Description string  `parquet:"description"`
	CategoryID  int64   `parquet:"category_id"`
	SalePrice   float64 `parquet:"sale_price"`
	CostPrice   float64 `parquet:"cost_price"`
	Active      bool    `parquet:"active"`
}

// Store is a raw lojas record.
type Store struct {
	ID      int64  `parquet:"id"`
	Name    string `parquet:"name"`
	Address string `parquet:"address"`
}

// SaleItem is one line item inside a raw sale. Prices may be absent on the
// item and are then filled from the product dimension downstream.
type SaleItem struct {
	ProductID  int64    `parquet:"product_id"`
	Quantity   int64    `parquet:"quantity"`
	UnitPrice  *float64 `parquet:"unit_price,optional"`
	TotalPrice *float64 `parquet:"total_price,optional"`
}

// Sale is a raw vendas record with nested line items.
type Sale struct {
	ID                int64      `parquet:"id"`
	SaleDate          string     `parquet:"sale_date"`
	PredictedDelivery *string    `parquet:"predicted_delivery,optional"`
	DeliveredAt       *string    `parquet:"delivered_at,optional"`
	Status            string     `parquet:"status"`
	StoreID           int64      `parquet:"store_id"`
	ClientID          int64      `parquet:"client_id"`
	Items             []SaleItem `parquet:"items"`
}

// Inventory is a raw estoque reading: the absolute quantity of a product at a
// store at UpdatedAt.
type Inventory struct {
	ID        int64  `parquet:"id"`
	StoreID   int64  `parquet:"store_id"`
	ProductID int64  `parquet:"product_id"`
	UpdatedAt string `parquet:"updated_at"`
	Quantity  int64  `parquet:"quantity"`
}

// DistributionItem is one line item inside a raw internal distribution.
type DistributionItem struct {
	ProductID int64 `parquet:"product_id"`
	Quantity  int64 `parquet:"quantity"`
}

// Distribution is a raw distribuicao_interna record with nested line items.
type Distribution struct {
	ID               int64              `parquet:"id"`
	FromStoreID      int64              `parquet:"from_store_id"`
	ToStoreID        int64              `parquet:"to_store_id"`
	DistributionDate string             `parquet:"distribution_date"`
	Status           string             `parquet:"status"`
	Items            []DistributionItem `parquet:"items"`
}

// Entry is a raw entradas record. Only its entry_date participates in the
// calendar range scan.
type Entry struct {
	ID        int64  `parquet:"id"`
	EntryDate string `parquet:"entry_date"`
}
