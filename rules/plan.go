package rules

import (
	"github.com/nstehr/towerbot/gamemath"
	"github.com/nstehr/towerbot/model"
)

// Plan accumulates the actions rules emit during one evaluation and tracks
// the working resource pool. It refuses additions that would break a game
// rule so later rules always see a consistent state.
type Plan struct {
	Budget    int
	spent     int
	armor     bool
	upgrade   bool
	targets   map[int]bool
	allies    map[int]bool
	combat    []model.CombatAction
	diplomacy []model.DiplomacyAction
}

func NewPlan(budget int) *Plan {
	return &Plan{
		Budget:  max(budget, 0),
		targets: make(map[int]bool),
		allies:  make(map[int]bool),
	}
}

// Remaining is the unspent part of the budget.
func (p *Plan) Remaining() int { return p.Budget - p.spent }

func (p *Plan) Spent() int { return p.spent }

func (p *Plan) HasArmor() bool   { return p.armor }
func (p *Plan) HasUpgrade() bool { return p.upgrade }

// Armor adds an armor action capped to what is left. Returns the amount added.
func (p *Plan) Armor(amount int) int {
	amount = min(amount, p.Remaining())
	if p.armor || amount <= 0 {
		return 0
	}
	p.armor = true
	p.spent += gamemath.ArmorCost(amount)
	p.combat = append(p.combat, model.Armor(amount))
	return amount
}

// Upgrade adds an upgrade for a tower at level if it is affordable.
func (p *Plan) Upgrade(level int) bool {
	cost := gamemath.UpgradeCost(level)
	if p.upgrade || !gamemath.CanUpgrade(level) || cost > p.Remaining() {
		return false
	}
	p.upgrade = true
	p.spent += cost
	p.combat = append(p.combat, model.Upgrade())
	return true
}

// Attack adds an attack capped to what is left. Returns the troops committed.
func (p *Plan) Attack(target, troops int) int {
	troops = min(troops, p.Remaining())
	if p.targets[target] || troops <= 0 {
		return 0
	}
	p.targets[target] = true
	p.spent += gamemath.AttackCost(troops)
	p.combat = append(p.combat, model.Attack(target, troops))
	return troops
}

// Propose adds a diplomacy declaration unless the ally was already named.
func (p *Plan) Propose(a model.DiplomacyAction) bool {
	if p.allies[a.AllyID] {
		return false
	}
	p.allies[a.AllyID] = true
	p.diplomacy = append(p.diplomacy, a)
	return true
}

func (p *Plan) Combat() []model.CombatAction       { return p.combat }
func (p *Plan) Diplomacy() []model.DiplomacyAction { return p.diplomacy }
