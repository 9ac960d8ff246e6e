/*Package v3 implements a Matrix type representing a row-major 3D matrix (i.e. a Nx3 matrix).
The v3.Matrix holds the cartesian coordinates of sets of atoms, and the spin vectors
attached to them, in gopdfgui. It is based on gonum's Dense type, with some additional
restrictions because of the fixed number of columns.
*/
package v3
