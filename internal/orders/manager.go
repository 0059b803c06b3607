// Package orders tracks tables and the single order currently being edited.
//
// Editing happens in a buffer: SelectTable loads a table's saved order into it,
// line mutations touch only the buffer, and SaveOrder writes it back. Selecting
// another table or clearing the selection drops unsaved changes.
package orders

import (
	"restoran-pos/internal/apperr"
	"restoran-pos/internal/models"
)

type Manager struct {
	tables []models.Table
	active *uint
	buffer []models.OrderLine
}

func New(tables []models.Table) *Manager {
	m := &Manager{}
	for _, t := range tables {
		t = t.Clone()
		t.Status = models.StatusFor(t.Order)
		m.tables = append(m.tables, t)
	}
	return m
}

func (m *Manager) Tables() []models.Table {
	out := make([]models.Table, 0, len(m.tables))
	for _, t := range m.tables {
		out = append(out, t.Clone())
	}
	return out
}

func (m *Manager) Table(id uint) (models.Table, error) {
	i := m.indexOf(id)
	if i < 0 {
		return models.Table{}, apperr.NotFound("table", id)
	}
	return m.tables[i].Clone(), nil
}

// Active returns the table being edited and a copy of the buffer.
func (m *Manager) Active() (models.Table, []models.OrderLine, bool) {
	if m.active == nil {
		return models.Table{}, nil, false
	}
	t := m.tables[m.indexOf(*m.active)].Clone()
	return t, models.CloneLines(m.buffer), true
}

// Occupied counts tables with a saved, non-empty order.
func (m *Manager) Occupied() int {
	n := 0
	for _, t := range m.tables {
		if t.Status == models.TableOccupied {
			n++
		}
	}
	return n
}

func (m *Manager) SelectTable(id uint) error {
	i := m.indexOf(id)
	if i < 0 {
		return apperr.NotFound("table", id)
	}
	tid := id
	m.active = &tid
	m.buffer = models.CloneLines(m.tables[i].Order)
	return nil
}

// AddLine adds one unit of p. Name and price are frozen on first add.
func (m *Manager) AddLine(p models.Product) error {
	if m.active == nil {
		return apperr.InvalidState("no table selected")
	}
	for i := range m.buffer {
		if m.buffer[i].ProductID == p.ID {
			m.buffer[i].Quantity++
			return nil
		}
	}
	m.buffer = append(m.buffer, models.OrderLine{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  1,
	})
	return nil
}

// ChangeQuantity clamps at zero and drops the line when it gets there.
// A zero delta changes nothing.
func (m *Manager) ChangeQuantity(productID uint, delta int) error {
	if m.active == nil {
		return apperr.InvalidState("no table selected")
	}
	i := m.lineIndex(productID)
	if i < 0 {
		return apperr.NotFound("order line for product", productID)
	}
	if delta == 0 {
		return nil
	}
	q := m.buffer[i].Quantity + delta
	if q > 0 {
		m.buffer[i].Quantity = q
		return nil
	}
	m.buffer = append(m.buffer[:i:i], m.buffer[i+1:]...)
	return nil
}

// SaveOrder parks the buffer on the active table and ends the selection.
func (m *Manager) SaveOrder() (models.Table, error) {
	if m.active == nil {
		return models.Table{}, apperr.InvalidState("no table selected")
	}
	i := m.indexOf(*m.active)
	m.tables[i].Order = models.CloneLines(m.buffer)
	m.tables[i].Status = models.StatusFor(m.buffer)
	m.ClearSelection()
	return m.tables[i].Clone(), nil
}

func (m *Manager) ClearSelection() {
	m.active = nil
	m.buffer = nil
}

// CloseActive empties the active table after payment and ends the selection.
func (m *Manager) CloseActive() (models.Table, error) {
	if m.active == nil {
		return models.Table{}, apperr.InvalidState("no table selected")
	}
	i := m.indexOf(*m.active)
	m.tables[i].Order = []models.OrderLine{}
	m.tables[i].Status = models.TableAvailable
	m.ClearSelection()
	return m.tables[i].Clone(), nil
}

func (m *Manager) indexOf(id uint) int {
	for i := range m.tables {
		if m.tables[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) lineIndex(productID uint) int {
	for i := range m.buffer {
		if m.buffer[i].ProductID == productID {
			return i
		}
	}
	return -1
}
