package catalog

// Snapshot is a point-in-time view of the sellable catalog, fetched once per
// checkout session and refreshed after every committed sale. Stock values in
// the snapshot are a best-effort bound: concurrent sales on another terminal
// are not reflected until the next refresh.
type Snapshot struct {
	products []Product
	byID     map[string]*Product
}

// NewSnapshot builds a Snapshot from a list of products.
func NewSnapshot(products []Product) *Snapshot {
	s := &Snapshot{
		products: products,
		byID:     make(map[string]*Product, len(products)),
	}
	for i := range s.products {
		s.byID[s.products[i].ID] = &s.products[i]
	}
	return s
}

// Get returns the product with the given id, or false when the snapshot does
// not contain it.
func (s *Snapshot) Get(id string) (Product, bool) {
	p, ok := s.byID[id]
	if !ok {
		return Product{}, false
	}
	return *p, true
}

// Products returns the snapshot contents in fetch order.
func (s *Snapshot) Products() []Product {
	return s.products
}

// Len returns the number of products in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.products)
}
