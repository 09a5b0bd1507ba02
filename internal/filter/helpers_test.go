package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/icode/ameba/internal/dsl"
	"github.com/icode/ameba/internal/metadata"
	"github.com/stretchr/testify/require"
)

type Customer struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	VIP       bool      `json:"vip"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
	Secret    string    `json:"-"`
	Orders    []Order   `json:"orders" gorm:"foreignKey:CustomerID"`
	Tags      []Tag     `json:"tags" gorm:"many2many:customer_tags"`
}

func (Customer) TableName() string { return "customers" }

type Order struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	CustomerID uint        `json:"customerId"`
	Status     string      `json:"status"`
	Total      float64     `json:"total"`
	Customer   *Customer   `json:"customer"`
	Items      []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	OrderID uint   `json:"orderId"`
	SKU     string `json:"sku"`
	Qty     int    `json:"qty"`
}

func (OrderItem) TableName() string { return "order_items" }

type Tag struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Label string `json:"label"`
}

func (Tag) TableName() string { return "tags" }

// testSchema registers the fixture entities and returns the registry and
// the customer entity queries run against.
func testSchema(t *testing.T) (*metadata.Registry, *metadata.EntityMetadata) {
	t.Helper()
	registry := metadata.NewRegistry(nil)
	customer, err := registry.Register(&Customer{})
	require.NoError(t, err)
	_, err = registry.Register(&Order{})
	require.NoError(t, err)
	_, err = registry.Register(&Tag{})
	require.NoError(t, err)
	return registry, customer
}

func testContext(t *testing.T) *Context {
	t.Helper()
	registry, customer := testSchema(t)
	return NewContext(registry, customer)
}

func compile(t *testing.T, input string) ([]Expression, error) {
	t.Helper()
	return Compile(nil, NewInvoker(), input, testContext(t))
}

// compileOne compiles input and requires exactly one expression.
func compileOne(t *testing.T, input string) Expression {
	t.Helper()
	exprs, err := compile(t, input)
	require.NoError(t, err, input)
	require.Len(t, exprs, 1, input)
	return exprs[0]
}

// requireSyntaxError asserts err is a *dsl.SyntaxError with key and, when
// given, the format arguments.
func requireSyntaxError(t *testing.T, err error, key string, args ...interface{}) {
	t.Helper()
	require.Error(t, err)
	var syntaxErr *dsl.SyntaxError
	require.True(t, errors.As(err, &syntaxErr), "expected *dsl.SyntaxError, got %T: %v", err, err)
	require.Equal(t, key, syntaxErr.Key, "message: %s", err)
	if len(args) > 0 {
		require.Equal(t, args, syntaxErr.Args)
	}
	require.ErrorIs(t, err, dsl.ErrSyntax)
}

func requireUnprocessable(t *testing.T, err error, properties ...string) {
	t.Helper()
	require.Error(t, err)
	var unprocessable *dsl.UnprocessableEntityError
	require.True(t, errors.As(err, &unprocessable), "expected *dsl.UnprocessableEntityError, got %T: %v", err, err)
	require.Equal(t, properties, unprocessable.Properties)
	require.ErrorIs(t, err, dsl.ErrUnprocessable)
}
