package scenario

import "fmt"

// Document numbers are date-stamped with a random suffix. Collisions surface
// as unique violations from the database and are not retried.

func (e *Env) salesOrderNo() string {
	return fmt.Sprintf("SO%s%04d", e.Now.Format("20060102"), e.intBetween(9000, 9999))
}

func (e *Env) workOrderNo() string {
	return fmt.Sprintf("WO%s%04d", e.Now.Format("20060102"), e.intBetween(9000, 9999))
}

func (e *Env) productionOrderNo() string {
	return fmt.Sprintf("MO%s%05d", e.Now.Format("20060102"), e.intBetween(90000, 99999))
}

func (e *Env) materialRequestNo() string {
	return fmt.Sprintf("MR%s%04d", e.Now.Format("20060102"), e.intBetween(1000, 9999))
}
