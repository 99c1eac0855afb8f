// Package seir integrates the Susceptible-Exposed-Infectious-Removed compartment
// model with a lockdown that scales the transmission rate from a given day onward.
//
// The right-hand side is
//
//	dS/dt = -β(t)·S·I/N
//	dE/dt =  β(t)·S·I/N - σ·E
//	dI/dt =  σ·E - γ·I
//	dR/dt =  γ·I
//
// The model is held as a mass-action reaction network (S+I→E+I at rate β/N, E→I at
// rate σ, I→R at rate γ) and solved with an embedded Dormand-Prince 5(4) pair.
// Integration always stops on every requested time point and on the intervention
// day, and β is held constant on each such segment, so the solver never steps
// across the switch.
package seir
