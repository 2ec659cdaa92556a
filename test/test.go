package test

import (
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// Test runs the specs of the calling package, named after the package
func Test(t *testing.T) {
	RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, suiteName(2))
}

// Fixture reads a file from the testdata directory of the package under test
func Fixture(name string) []byte {
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	Expect(err).ToNot(HaveOccurred())
	return raw
}

func suiteName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return "trialmatch"
	}

	// e.g. github.com/trialmatch/workspace/cohort_test.TestSuite
	name := runtime.FuncForPC(pc).Name()
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return path.Base(strings.TrimSuffix(name, "_test"))
}
