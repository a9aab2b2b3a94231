package portalAuth_test

import (
	"context"
	"errors"
	"fmt"

	portalAuth "github.com/MrEthical07/portalAuth"
	"github.com/MrEthical07/portalAuth/directory/memory"
	"github.com/MrEthical07/portalAuth/permission"
)

func exampleEngine() (*portalAuth.Engine, *memory.Directory) {
	cfg := portalAuth.DefaultConfig()
	cfg.Token.Secret = []byte("example-secret-example-secret-example-secret")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	dir := memory.New(nil)
	engine, err := portalAuth.New().WithConfig(cfg).WithDirectory(dir).Build()
	if err != nil {
		panic(err)
	}
	return engine, dir
}

// ExampleNew builds an engine over the in-memory directory and logs a user in.
func ExampleNew() {
	engine, dir := exampleEngine()
	defer engine.Close()

	digest, _ := engine.HashPassword("correct-horse-battery")
	_ = dir.Add(portalAuth.Account{
		SubjectID:    "u-42",
		Identifier:   "Ada@Example.edu",
		PasswordHash: digest,
		Role:         portalAuth.RoleFaculty,
		DepartmentID: "math",
		Active:       true,
	})

	s, err := engine.LoginSession(context.Background(), "ada@example.edu", "correct-horse-battery")
	if err != nil {
		fmt.Println("login failed:", err)
		return
	}
	fmt.Println(s.Principal.SubjectID, s.Principal.Role, s.Principal.DepartmentID)
	// Output: u-42 faculty math
}

// ExampleEngine_Login shows that every credential failure looks the same to the caller.
func ExampleEngine_Login() {
	engine, _ := exampleEngine()
	defer engine.Close()

	_, err := engine.Login(context.Background(), "nobody@example.edu", "whatever-password")
	fmt.Println(errors.Is(err, portalAuth.ErrInvalidCredentials))
	// Output: true
}

// ExampleEngine_Classify resolves routes by longest prefix.
func ExampleEngine_Classify() {
	engine, _ := exampleEngine()
	defer engine.Close()

	for _, path := range []string{"/login", "/dashboard", "/api/publications/7", "/api/unknown"} {
		c := engine.Classify("GET", path)
		fmt.Printf("%s public=%t api=%t\n", path, c.Public, c.API)
	}
	// Output:
	// /login public=true api=false
	// /dashboard public=false api=false
	// /api/publications/7 public=false api=true
	// /api/unknown public=false api=true
}

// ExampleEngine_Allows checks the permission table directly.
func ExampleEngine_Allows() {
	engine, _ := exampleEngine()
	defer engine.Close()

	fmt.Println(engine.Allows(portalAuth.RoleStaff, permission.ResourcePublications, permission.ActionRead))
	fmt.Println(engine.Allows(portalAuth.RoleStaff, permission.ResourcePublications, permission.ActionDelete))
	fmt.Println(engine.Allows(portalAuth.RoleAdmin, permission.ResourceSettings, permission.ActionDelete))
	// Output:
	// true
	// false
	// true
}

// ExampleEngine_MetricsSnapshot reads the in-process counters.
func ExampleEngine_MetricsSnapshot() {
	engine, _ := exampleEngine()
	defer engine.Close()

	snapshot := engine.MetricsSnapshot()
	fmt.Println(len(snapshot.Counters))
	// Output: 0
}
