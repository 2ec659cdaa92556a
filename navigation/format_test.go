package navigation_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/trialmatch/workspace/gateway"
	"github.com/trialmatch/workspace/navigation"
	"github.com/trialmatch/workspace/pointer"
)

var _ = Describe("Format", func() {
	It("distinguishes absent lists from empty ones", func() {
		Expect(navigation.FormatList(nil)).To(Equal(navigation.NotAvailable))
		Expect(navigation.FormatList([]string{})).To(Equal(navigation.NoneParsed))
		Expect(navigation.FormatList([]string{"Asthma", "Obesity"})).To(Equal("Asthma, Obesity"))
	})

	It("never defaults a missing score", func() {
		Expect(navigation.FormatScore(nil)).To(Equal(navigation.NotAvailable))
		Expect(navigation.FormatScore(pointer.FromAny(0.0))).To(Equal("0.00"))
		Expect(navigation.FormatScore(pointer.FromAny(87.456))).To(Equal("87.46"))
	})

	It("renders missing text as not available", func() {
		Expect(navigation.FormatText(nil)).To(Equal(navigation.NotAvailable))
		Expect(navigation.FormatText(pointer.FromAny(""))).To(Equal(navigation.NotAvailable))
		Expect(navigation.FormatText(pointer.FromAny("Stable"))).To(Equal("Stable"))
	})

	It("title cases modes", func() {
		Expect(navigation.FormatMode(gateway.ModeDemo)).To(Equal("Demo"))
		Expect(navigation.FormatMode(gateway.ModeRandom)).To(Equal("Random"))
		Expect(navigation.FormatMode("")).To(Equal(navigation.NotAvailable))
	})
})
