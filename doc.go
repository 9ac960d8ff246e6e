/*
 * doc.go, part of gopdfgui.
 * 
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 * 
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as 
 * published by the Free Software Foundation; either version 2.1 of the 
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General 
 * Public License along with this program.  If not, see 
 * <http://www.gnu.org/licenses/>.
 * 
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

//Package pdfgui holds the types shared by the gopdfgui packages: error kinds,
//the event sink through which the kernel publishes changes, the variable
//accessor implemented by phases and datasets, and periodic-table data.
//
//The modelling kernel lives in sub-packages: param (parameters and
//constraint formulas), pdfdata (observed and calculated PDFs), structure
//(phases), mpdf (magnetic PDF), fitting, engine, project, series,
//plotmodel and pdfapi.
package pdfgui
