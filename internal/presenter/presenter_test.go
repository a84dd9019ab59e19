package presenter_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hamed0406/sysmon/internal/domain"
	"github.com/hamed0406/sysmon/internal/presenter"
)

func generation(statuses map[domain.SystemID]domain.StatusKind, extra ...domain.SystemID) domain.Generation {
	gen := domain.Generation{
		Systems: map[domain.SystemID]domain.SystemConfig{},
		Status:  map[domain.SystemID]domain.StatusRecord{},
	}
	for id, s := range statuses {
		gen.Systems[id] = domain.SystemConfig{ID: id, Host: string(id) + ".example"}
		gen.Status[id] = domain.StatusRecord{Status: s}
		gen.IDs = append(gen.IDs, id)
	}
	for _, id := range extra {
		gen.Systems[id] = domain.SystemConfig{ID: id}
		gen.IDs = append(gen.IDs, id)
	}
	return gen
}

func ids(entries []presenter.Entry) []domain.SystemID {
	out := make([]domain.SystemID, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

var _ = Describe("Build", func() {
	Context("ordering", func() {
		It("should put the worst health first", func() {
			gen := generation(map[domain.SystemID]domain.StatusKind{
				"up":       domain.StatusUp,
				"disabled": domain.StatusDisabled,
				"down":     domain.StatusDown,
				"pending":  domain.StatusPending,
				"warning":  domain.StatusWarning,
				"unknown":  domain.StatusUnknown,
			})
			Expect(ids(presenter.Build(gen))).To(Equal([]domain.SystemID{
				"down", "unknown", "warning", "up", "pending", "disabled",
			}))
		})

		It("should order DOWN, WARNING, UP and DISABLED", func() {
			gen := generation(map[domain.SystemID]domain.StatusKind{
				"a": domain.StatusUp,
				"b": domain.StatusDisabled,
				"c": domain.StatusDown,
				"d": domain.StatusWarning,
			})
			Expect(ids(presenter.Build(gen))).To(Equal([]domain.SystemID{"c", "d", "a", "b"}))
		})

		It("should break ties by ascending id", func() {
			gen := generation(map[domain.SystemID]domain.StatusKind{
				"zeta":  domain.StatusDown,
				"alpha": domain.StatusDown,
				"mid":   domain.StatusUp,
				"beta":  domain.StatusDown,
			})
			Expect(ids(presenter.Build(gen))).To(Equal([]domain.SystemID{"alpha", "beta", "zeta", "mid"}))
		})

		It("should sort unrecognised statuses after DISABLED", func() {
			gen := generation(map[domain.SystemID]domain.StatusKind{
				"odd":  domain.StatusKind("MAINTENANCE"),
				"off":  domain.StatusDisabled,
				"fine": domain.StatusUp,
			})
			Expect(ids(presenter.Build(gen))).To(Equal([]domain.SystemID{"fine", "off", "odd"}))
		})
	})

	Context("membership", func() {
		It("should skip systems without a status record", func() {
			gen := generation(map[domain.SystemID]domain.StatusKind{"a": domain.StatusUp}, "orphan")
			Expect(ids(presenter.Build(gen))).To(Equal([]domain.SystemID{"a"}))
		})

		It("should return an empty, non-nil view for an empty generation", func() {
			entries := presenter.Build(domain.Generation{})
			Expect(entries).NotTo(BeNil())
			Expect(entries).To(BeEmpty())
		})

		It("should carry config and status side by side", func() {
			gen := generation(map[domain.SystemID]domain.StatusKind{"web": domain.StatusWarning})
			e := presenter.Build(gen)[0]
			Expect(e.Host).To(Equal("web.example"))
			Expect(e.Status).To(Equal(domain.StatusWarning))
		})
	})

	Context("JSON", func() {
		It("should flatten config and status into one object", func() {
			gen := generation(map[domain.SystemID]domain.StatusKind{"web": domain.StatusUp})
			data, err := json.Marshal(presenter.Build(gen))
			Expect(err).NotTo(HaveOccurred())

			var rows []map[string]any
			Expect(json.Unmarshal(data, &rows)).To(Succeed())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0]).To(HaveKeyWithValue("id", "web"))
			Expect(rows[0]).To(HaveKeyWithValue("host", "web.example"))
			Expect(rows[0]).To(HaveKeyWithValue("status", "UP"))
			Expect(rows[0]).To(HaveKey("last_check"))
		})
	})
})

var _ = Describe("Priority", func() {
	It("should rank known statuses 0 through 5", func() {
		Expect(presenter.Priority(domain.StatusDown)).To(Equal(0))
		Expect(presenter.Priority(domain.StatusUnknown)).To(Equal(1))
		Expect(presenter.Priority(domain.StatusWarning)).To(Equal(2))
		Expect(presenter.Priority(domain.StatusUp)).To(Equal(3))
		Expect(presenter.Priority(domain.StatusPending)).To(Equal(4))
		Expect(presenter.Priority(domain.StatusDisabled)).To(Equal(5))
		Expect(presenter.Priority("")).To(Equal(99))
	})
})
