package metadata

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

type testUser struct {
	ID        uint        `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Password  string      `json:"-"`
	CreatedAt time.Time   `json:"createdAt"`
	Orders    []testOrder `json:"orders" gorm:"foreignKey:UserID"`
	Roles     []testRole  `json:"roles" gorm:"many2many:user_roles"`
}

func (testUser) TableName() string { return "users" }

type testOrder struct {
	ID     uint      `json:"id"`
	UserID uint      `json:"userId"`
	Total  float64   `json:"total"`
	Note   string    `json:"note" ameba:"-"`
	User   *testUser `json:"user" gorm:"foreignKey:UserID"`
}

func (testOrder) TableName() string { return "orders" }

type testRole struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func (testRole) TableName() string { return "roles" }

type testNoKey struct {
	Name string
}

func TestAnalyzeEntity(t *testing.T) {
	meta, err := NewAnalyzer(nil).Analyze(&testUser{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if meta.EntityName != "testUser" {
		t.Errorf("EntityName = %q, want testUser", meta.EntityName)
	}
	if meta.EntitySetName != "testUsers" {
		t.Errorf("EntitySetName = %q, want testUsers", meta.EntitySetName)
	}
	if meta.TableName != "users" {
		t.Errorf("TableName = %q, want users", meta.TableName)
	}
	if cols := meta.KeyColumns(); !reflect.DeepEqual(cols, []string{"id"}) {
		t.Errorf("KeyColumns() = %v, want [id]", cols)
	}

	created, ok := meta.FindProperty("createdAt")
	if !ok {
		t.Fatal("createdAt not found")
	}
	if created.Column != "created_at" || created.Name != "CreatedAt" {
		t.Errorf("createdAt = %+v", created)
	}

	password, ok := meta.FindProperty("Password")
	if !ok || !password.Hidden {
		t.Errorf("Password should be present and hidden, got %+v", password)
	}
}

func TestAnalyzeEntity_RequiresKey(t *testing.T) {
	if _, err := NewAnalyzer(nil).Analyze(testNoKey{}); err == nil {
		t.Error("expected error for entity without primary key")
	}
	if _, err := NewAnalyzer(nil).Analyze(nil); err == nil {
		t.Error("expected error for nil entity")
	}
}

func TestAnalyzeEntity_Navigation(t *testing.T) {
	meta, err := NewAnalyzer(nil).Analyze(&testUser{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	tests := []struct {
		name          string
		prop          string
		isArray       bool
		target        string
		joinTable     string
		joinColumns   []JoinColumn
		targetColumns []JoinColumn
	}{
		{
			name:        "has many",
			prop:        "orders",
			isArray:     true,
			target:      "testOrder",
			joinColumns: []JoinColumn{{Local: "id", Remote: "user_id"}},
		},
		{
			name:          "many to many",
			prop:          "roles",
			isArray:       true,
			target:        "testRole",
			joinTable:     "user_roles",
			joinColumns:   []JoinColumn{{Local: "id", Remote: "test_user_id"}},
			targetColumns: []JoinColumn{{Local: "id", Remote: "test_role_id"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := meta.FindProperty(tt.prop)
			if !ok {
				t.Fatalf("%s not found", tt.prop)
			}
			if !p.IsNavigationProp || p.NavigationIsArray != tt.isArray {
				t.Errorf("navigation flags = %v/%v", p.IsNavigationProp, p.NavigationIsArray)
			}
			if p.Target == nil || p.Target.EntityName != tt.target {
				t.Fatalf("Target = %+v, want %s", p.Target, tt.target)
			}
			if p.JoinTable != tt.joinTable {
				t.Errorf("JoinTable = %q, want %q", p.JoinTable, tt.joinTable)
			}
			if !reflect.DeepEqual(p.JoinColumns, tt.joinColumns) {
				t.Errorf("JoinColumns = %+v, want %+v", p.JoinColumns, tt.joinColumns)
			}
			if len(tt.targetColumns) > 0 && !reflect.DeepEqual(p.TargetColumns, tt.targetColumns) {
				t.Errorf("TargetColumns = %+v, want %+v", p.TargetColumns, tt.targetColumns)
			}
		})
	}

	orders, _ := meta.FindProperty("orders")
	user, ok := orders.Target.FindProperty("user")
	if !ok {
		t.Fatal("belongs-to user not found on order")
	}
	if user.NavigationIsArray {
		t.Error("belongs-to should not be a collection")
	}
	if want := []JoinColumn{{Local: "user_id", Remote: "id"}}; !reflect.DeepEqual(user.JoinColumns, want) {
		t.Errorf("JoinColumns = %+v, want %+v", user.JoinColumns, want)
	}
	if user.Target != meta {
		t.Error("cyclic navigation should point back at the same metadata")
	}
}

func TestResolvePath(t *testing.T) {
	meta, err := NewAnalyzer(nil).Analyze(&testUser{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	resolved, err := meta.ResolvePath("orders.total")
	if err != nil {
		t.Fatalf("ResolvePath() error = %v", err)
	}
	if len(resolved.Navigations) != 1 || resolved.Navigations[0].Name != "Orders" {
		t.Errorf("Navigations = %+v", resolved.Navigations)
	}
	if resolved.Property.Column != "total" || resolved.Owner.TableName != "orders" {
		t.Errorf("Property = %+v, Owner = %s", resolved.Property, resolved.Owner.TableName)
	}

	errTests := []struct {
		path string
		want error
	}{
		{"", ErrPropertyNotFound},
		{"ghost", ErrPropertyNotFound},
		{"password", ErrPropertyNotFound},
		{"orders.note", ErrPropertyNotFound},
		{"name.first", ErrNotNavigation},
	}
	for _, tt := range errTests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := meta.ResolvePath(tt.path)
			if !errors.Is(err, tt.want) {
				t.Errorf("ResolvePath(%q) error = %v, want %v", tt.path, err, tt.want)
			}
		})
	}
}

func TestPluralize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Product", "Products"},
		{"Category", "Categories"},
		{"Box", "Boxes"},
		{"Buzz", "Buzzes"},
		{"Church", "Churches"},
		{"Dish", "Dishes"},
		{"Class", "Classes"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := pluralize(tt.input)
			if got != tt.want {
				t.Errorf("pluralize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetJsonName(t *testing.T) {
	type TestStruct struct {
		NoTag     string
		WithTag   string `json:"custom_name"`
		OmitEmpty string `json:",omitempty"`
		Both      string `json:"another_name,omitempty"`
		Skipped   string `json:"-"`
	}

	entityType := reflect.TypeOf(TestStruct{})

	tests := []struct {
		fieldName string
		want      string
	}{
		{"NoTag", "NoTag"},
		{"WithTag", "custom_name"},
		{"OmitEmpty", "OmitEmpty"},
		{"Both", "another_name"},
		{"Skipped", "Skipped"},
	}

	for _, tt := range tests {
		t.Run(tt.fieldName, func(t *testing.T) {
			field, _ := entityType.FieldByName(tt.fieldName)
			got := getJsonName(field)
			if got != tt.want {
				t.Errorf("getJsonName(%q) = %q, want %q", tt.fieldName, got, tt.want)
			}
		})
	}
}

func TestFindProperty_CaseInsensitive(t *testing.T) {
	meta, err := NewAnalyzer(nil).Analyze(&testUser{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	for _, name := range []string{"email", "Email", "EMAIL"} {
		if p, ok := meta.FindProperty(name); !ok || p.Column != "email" {
			t.Errorf("FindProperty(%q) = %+v, %v", name, p, ok)
		}
	}
}
